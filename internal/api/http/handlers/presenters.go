package handlers

import (
	"github.com/spec-kit/backoffice/internal/api/dto"
	"github.com/spec-kit/backoffice/internal/domain"
	"github.com/spec-kit/backoffice/internal/service"
)

func dealResponse(deal domain.Deal) dto.DealResponse {
	return dto.DealResponse{
		ID:           deal.ID,
		Title:        deal.Title,
		Organization: deal.Organization,
		ContactName:  deal.ContactName,
		ContactEmail: deal.ContactEmail,
		ContactPhone: deal.ContactPhone,
		Value:        deal.Value,
		QualityLead:  deal.QualityLead,
		Status:       deal.Status,
		Margin:       deal.Margin,
		ProposalType: deal.ProposalType,
		Channel:      deal.Channel,
		DueDate:      formatDate(deal.DueDate),
		DeliveryDate: formatDate(deal.DeliveryDate),
		Notes:        deal.Notes,
		Archived:     deal.Archived,
		CreatedBy:    deal.CreatedBy,
		CreatedAt:    deal.CreatedAt,
		UpdatedAt:    deal.UpdatedAt,
	}
}

func dealViewResponse(view service.DealView) dto.DealResponse {
	resp := dealResponse(view.Deal)
	resp.ActivityStatus = view.ActivityStatus
	if view.NextActivity != nil {
		next := activityResponse(*view.NextActivity)
		resp.NextActivity = &next
	}
	return resp
}

func historyResponse(entry domain.DealStatusHistory) dto.DealHistoryResponse {
	return dto.DealHistoryResponse{
		ID:        entry.ID,
		DealID:    entry.DealID,
		OldStatus: entry.OldStatus,
		NewStatus: entry.NewStatus,
		ChangedBy: entry.ChangedBy,
		Reason:    entry.Reason,
		CreatedAt: entry.CreatedAt,
	}
}

func activityResponse(activity domain.Activity) dto.ActivityResponse {
	return dto.ActivityResponse{
		ID:            activity.ID,
		DealID:        activity.DealID,
		Title:         activity.Title,
		Description:   activity.Description,
		Type:          activity.Type,
		Status:        activity.Status,
		ScheduledDate: activity.ScheduledDate.Format(dateLayout),
		ScheduledTime: activity.ScheduledTime,
		CompletedAt:   activity.CompletedAt,
		CreatedBy:     activity.CreatedBy,
		AssignedTo:    activity.AssignedTo,
		CreatedAt:     activity.CreatedAt,
		UpdatedAt:     activity.UpdatedAt,
	}
}

func noteResponse(note domain.DealNote) dto.NoteResponse {
	return dto.NoteResponse{
		ID:        note.ID,
		DealID:    note.DealID,
		AuthorID:  note.AuthorID,
		Content:   note.Content,
		CreatedAt: note.CreatedAt,
	}
}

func subscriberResponse(subscriber domain.Subscriber) dto.SubscriberResponse {
	return dto.SubscriberResponse{
		ID:        subscriber.ID,
		Email:     subscriber.Email,
		Name:      subscriber.Name,
		Status:    subscriber.Status,
		Source:    subscriber.Source,
		CreatedAt: subscriber.CreatedAt,
		UpdatedAt: subscriber.UpdatedAt,
	}
}

func userResponse(user domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		Name:        user.Name,
		Role:        user.Role,
		Active:      user.Active,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

func auditLogResponse(entry domain.AuditLogEntry) dto.AuditLogResponse {
	return dto.AuditLogResponse{
		ID:         entry.ID,
		ActorEmail: entry.ActorEmail,
		Action:     entry.Action,
		Resource:   entry.Resource,
		Details:    entry.Details,
		IPAddress:  entry.IPAddress,
		UserAgent:  entry.UserAgent,
		CreatedAt:  entry.CreatedAt,
	}
}

// mapSlice converts a slice, always returning a non-nil result so empty
// lists render as [] rather than null.
func mapSlice[T, R any](items []T, fn func(T) R) []R {
	out := make([]R, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}
