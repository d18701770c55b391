package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spec-kit/backoffice/internal/audit"
	"github.com/spec-kit/backoffice/internal/auth"
	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/repository"
	apperrors "github.com/spec-kit/backoffice/pkg/util/errorutil"
)

// ExportColumns is the fixed header of the deal export.
var ExportColumns = []string{
	"id",
	"title",
	"organization",
	"contact_name",
	"contact_email",
	"contact_phone",
	"value",
	"margin",
	"quality_lead",
	"status",
	"proposal_type",
	"channel",
	"due_date",
	"delivery_date",
	"archived",
	"created_at",
	"updated_at",
}

const exportDateLayout = "2006-01-02"

// Export writes deals as CSV to w and returns the number of data rows.
// Archived deals are skipped unless includeArchived is set.
func (s *DealService) Export(ctx context.Context, actor Actor, w io.Writer, includeArchived bool) (int, error) {
	if err := actor.authorize(auth.OpViewDeals); err != nil {
		return 0, err
	}
	deals, err := s.deals.List(ctx, repository.DealFilter{IncludeArchived: includeArchived})
	if err != nil {
		return 0, storeError(err, "deal")
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(ExportColumns); err != nil {
		return 0, apperrors.NewInternalError(err)
	}
	for _, deal := range deals {
		if err := writer.Write(exportRow(deal)); err != nil {
			return 0, apperrors.NewInternalError(err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, apperrors.NewInternalError(err)
	}

	record(s.recorder, actor, audit.ActionExportDeals, "deals", fmt.Sprintf("rows=%d archived=%t", len(deals), includeArchived))
	return len(deals), nil
}

func exportRow(deal domain.Deal) []string {
	return []string{
		deal.ID,
		deal.Title,
		deal.Organization,
		deal.ContactName,
		deal.ContactEmail,
		deal.ContactPhone,
		formatAmount(&deal.Value),
		formatAmount(deal.Margin),
		strconv.Itoa(deal.QualityLead),
		string(deal.Status),
		derefString(deal.ProposalType),
		derefString(deal.Channel),
		formatDate(deal.DueDate),
		formatDate(deal.DeliveryDate),
		strconv.FormatBool(deal.Archived),
		deal.CreatedAt.UTC().Format(time.RFC3339),
		deal.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func formatAmount(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(exportDateLayout)
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
