package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/coldreach/outreach-backend/internal/models"
)

var (
	ErrLeadNotFound = errors.New("lead not found")

	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// maxImportRows caps a single CSV/XLSX upload
const maxImportRows = 10000

// LeadService manages a campaign's lead list and handles inbound replies.
type LeadService struct {
	leads       LeadStore
	campaignSvc CampaignStorer
	jobs        JobStore
	events      EventPublisher
}

// CampaignStorer is the slice of CampaignService the lead service needs:
// ownership checks and completion detection after a reply.
type CampaignStorer interface {
	GetCampaign(userID, campaignID string) (*models.Campaign, error)
	CheckCompletion(campaignID string) (bool, error)
}

func NewLeadService(leads LeadStore, campaigns CampaignStorer, jobs JobStore, events EventPublisher) *LeadService {
	return &LeadService{
		leads:       leads,
		campaignSvc: campaigns,
		jobs:        jobs,
		events:      events,
	}
}

// CreateLead adds a single lead to a draft campaign
func (s *LeadService) CreateLead(userID, campaignID string, req *models.CreateLeadRequest) (*models.Lead, error) {
	campaign, err := s.campaignSvc.GetCampaign(userID, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status != models.CampaignDraft {
		return nil, ErrNotDraft
	}

	email := normalizeEmail(req.Email)
	if !emailPattern.MatchString(email) {
		return nil, fmt.Errorf("invalid email address: %s", req.Email)
	}

	existing, err := s.leads.ListEmails(campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing leads: %w", err)
	}
	for _, e := range existing {
		if e == email {
			return nil, fmt.Errorf("lead with email %s already exists in this campaign", email)
		}
	}

	lead := &models.Lead{
		CampaignID: campaignID,
		Email:      email,
		FirstName:  strings.TrimSpace(req.FirstName),
		Company:    strings.TrimSpace(req.Company),
		Status:     models.LeadPending,
	}
	if err := s.leads.Create(lead); err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}
	return lead, nil
}

// ListLeads lists a campaign's leads, optionally filtered by status
func (s *LeadService) ListLeads(userID, campaignID string, status *models.LeadStatus, offset, limit int) ([]*models.Lead, error) {
	if _, err := s.campaignSvc.GetCampaign(userID, campaignID); err != nil {
		return nil, err
	}
	leads, err := s.leads.ListByCampaign(campaignID, status, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	return leads, nil
}

// DeleteLead removes a lead from a draft campaign
func (s *LeadService) DeleteLead(userID, campaignID, leadID string) error {
	campaign, err := s.campaignSvc.GetCampaign(userID, campaignID)
	if err != nil {
		return err
	}
	if campaign.Status != models.CampaignDraft {
		return ErrNotDraft
	}

	lead, err := s.leads.GetByID(leadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLeadNotFound
		}
		return fmt.Errorf("failed to get lead: %w", err)
	}
	if lead.CampaignID != campaignID {
		return ErrLeadNotFound
	}

	if err := s.leads.Delete(leadID); err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}
	return nil
}

// ImportCSV bulk-imports leads from a CSV stream. Expected header columns:
// email, first_name, company (only email is required). Bad rows are skipped
// and reported, not fatal.
func (s *LeadService) ImportCSV(userID, campaignID string, r io.Reader) (*models.LeadImportResult, error) {
	campaign, err := s.campaignSvc.GetCampaign(userID, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status != models.CampaignDraft {
		return nil, ErrNotDraft
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	cols := columnIndex(header)
	if _, ok := cols["email"]; !ok {
		return nil, errors.New("CSV must have an 'email' column")
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		rows = append(rows, record)
		if len(rows) > maxImportRows {
			return nil, fmt.Errorf("import exceeds maximum of %d rows", maxImportRows)
		}
	}

	return s.importRows(campaignID, cols, rows)
}

// ImportXLSX bulk-imports leads from the first sheet of an Excel workbook.
// Same column contract as ImportCSV.
func (s *LeadService) ImportXLSX(userID, campaignID string, r io.Reader) (*models.LeadImportResult, error) {
	campaign, err := s.campaignSvc.GetCampaign(userID, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status != models.CampaignDraft {
		return nil, ErrNotDraft
	}

	workbook, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer workbook.Close()

	sheets := workbook.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	allRows, err := workbook.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(allRows) == 0 {
		return nil, errors.New("sheet is empty")
	}
	cols := columnIndex(allRows[0])
	if _, ok := cols["email"]; !ok {
		return nil, errors.New("sheet must have an 'email' column")
	}
	rows := allRows[1:]
	if len(rows) > maxImportRows {
		return nil, fmt.Errorf("import exceeds maximum of %d rows", maxImportRows)
	}

	return s.importRows(campaignID, cols, rows)
}

func (s *LeadService) importRows(campaignID string, cols map[string]int, rows [][]string) (*models.LeadImportResult, error) {
	existing, err := s.leads.ListEmails(campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing leads: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, e := range existing {
		seen[e] = true
	}

	result := &models.LeadImportResult{TotalRows: len(rows)}
	var batch []*models.Lead

	for i, row := range rows {
		rowNum := i + 2 // 1-based, after header
		email := normalizeEmail(cell(row, cols["email"]))
		if email == "" {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: missing email", rowNum))
			continue
		}
		if !emailPattern.MatchString(email) {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: invalid email %q", rowNum, email))
			continue
		}
		if seen[email] {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: duplicate email %q", rowNum, email))
			continue
		}
		seen[email] = true

		lead := &models.Lead{
			CampaignID: campaignID,
			Email:      email,
			Status:     models.LeadPending,
		}
		if idx, ok := cols["first_name"]; ok {
			lead.FirstName = strings.TrimSpace(cell(row, idx))
		}
		if idx, ok := cols["company"]; ok {
			lead.Company = strings.TrimSpace(cell(row, idx))
		}
		batch = append(batch, lead)
	}

	if len(batch) > 0 {
		if err := s.leads.CreateBatch(batch); err != nil {
			return nil, fmt.Errorf("failed to import leads: %w", err)
		}
	}
	result.Imported = len(batch)

	logrus.WithFields(logrus.Fields{
		"campaign_id": campaignID,
		"imported":    result.Imported,
		"skipped":     result.Skipped,
	}).Info("Imported leads")
	return result, nil
}

// MarkReplied records an inbound reply: the lead moves to replied and every
// pending job it still has is canceled, so no further steps go out. Safe to
// call more than once per lead.
func (s *LeadService) MarkReplied(leadID string) error {
	lead, err := s.leads.GetByID(leadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLeadNotFound
		}
		return fmt.Errorf("failed to get lead: %w", err)
	}

	if lead.Status.IsTerminal() {
		logrus.WithFields(logrus.Fields{
			"lead_id": leadID,
			"status":  lead.Status,
		}).Debug("Ignoring reply for lead in terminal state")
		return nil
	}

	lead.Status = models.LeadReplied
	if err := s.leads.Update(lead); err != nil {
		return fmt.Errorf("failed to update lead: %w", err)
	}

	canceled, err := s.jobs.SkipPendingForLead(leadID, "lead replied - job canceled")
	if err != nil {
		return fmt.Errorf("failed to cancel pending jobs: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"lead_id":       leadID,
		"campaign_id":   lead.CampaignID,
		"jobs_canceled": canceled,
	}).Info("Lead replied")

	if s.events != nil {
		if err := s.events.Publish("lead.replied", map[string]interface{}{
			"lead_id":     leadID,
			"campaign_id": lead.CampaignID,
			"email":       lead.Email,
		}); err != nil {
			logrus.WithError(err).Warn("Failed to publish lead.replied event")
		}
	}

	if _, err := s.campaignSvc.CheckCompletion(lead.CampaignID); err != nil {
		logrus.WithError(err).WithField("campaign_id", lead.CampaignID).
			Warn("Completion check after reply failed")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// columnIndex maps lower-cased header names to their positions
func columnIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return cols
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// ToLeadResponse converts a Lead model to its response DTO
func ToLeadResponse(lead *models.Lead) models.LeadResponse {
	return models.LeadResponse{
		ID:         lead.ID,
		CampaignID: lead.CampaignID,
		Email:      lead.Email,
		FirstName:  lead.FirstName,
		Company:    lead.Company,
		Status:     lead.Status,
		CreatedAt:  lead.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  lead.UpdatedAt.Format(time.RFC3339),
	}
}
