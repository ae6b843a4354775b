package annotation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Xlonenzo/contratos/internal/document"
)

// Kind selects which annotation variant a draft produces.
type Kind string

const (
	KindIssue    Kind = "issue"
	KindBookmark Kind = "bookmark"
)

// CreateRequest is the payload the workflow hands to the persistence
// collaborator on submit. DraftID tags the request so a late response can
// be matched against the draft that issued it.
type CreateRequest struct {
	DraftID       uuid.UUID
	ContractID    int64
	Kind          Kind
	Title         string
	Description   string
	Priority      document.IssuePriority
	IssueType     document.IssueType
	SelectionText string
	Range         document.Range
}

// Record is the persisted annotation as echoed back by the collaborator,
// carrying the server-assigned id.
type Record struct {
	ID            int64                  `json:"id"`
	ContractID    int64                  `json:"contract_id"`
	Kind          Kind                   `json:"kind"`
	Title         string                 `json:"title"`
	Description   string                 `json:"description,omitempty"`
	Priority      document.IssuePriority `json:"priority,omitempty"`
	IssueType     document.IssueType     `json:"issue_type,omitempty"`
	Status        string                 `json:"status,omitempty"`
	SelectionText string                 `json:"selection_text,omitempty"`
	CreatedAt     time.Time              `json:"created_at"`
}

// Service is the external persistence collaborator for annotations. The
// HTTP client and the offline SQLite store both implement it.
type Service interface {
	CreateAnnotation(ctx context.Context, req CreateRequest) (*Record, error)
	ListAnnotations(ctx context.Context, contractID int64) ([]Record, error)
}

// Mark builds the document mark for a persisted record.
func (r *Record) Mark() document.Mark {
	switch r.Kind {
	case KindBookmark:
		return document.BookmarkMark(document.BookmarkData{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			CreatedAt:   r.CreatedAt,
		})
	default:
		return document.IssueMark(document.IssueData{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			Priority:    r.Priority,
			Type:        r.IssueType,
			Status:      r.Status,
			CreatedAt:   r.CreatedAt,
		})
	}
}
