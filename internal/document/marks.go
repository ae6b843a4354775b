package document

import (
	"bytes"
	"encoding/json"
	"time"
)

// MarkKind identifies a mark variant. The known kinds form a closed set;
// any other value is an unknown mark read from an external document, which
// is carried through untouched (and rendered undecorated) so a newer
// authoring version's data is never dropped.
type MarkKind string

const (
	MarkBold        MarkKind = "bold"
	MarkItalic      MarkKind = "italic"
	MarkUnderline   MarkKind = "underline"
	MarkAlignLeft   MarkKind = "align-left"
	MarkAlignCenter MarkKind = "align-center"
	MarkAlignRight  MarkKind = "align-right"
	MarkBookmark    MarkKind = "bookmark"
	MarkIssue       MarkKind = "issue"
)

// IssuePriority mirrors the backend's issue priority enum.
type IssuePriority string

const (
	PriorityLow      IssuePriority = "low"
	PriorityMedium   IssuePriority = "medium"
	PriorityHigh     IssuePriority = "high"
	PriorityCritical IssuePriority = "critical"
)

// IssueType mirrors the backend's issue type enum.
type IssueType string

const (
	IssueTask        IssueType = "task"
	IssueBug         IssueType = "bug"
	IssueImprovement IssueType = "improvement"
	IssueQuestion    IssueType = "question"
)

// BookmarkData is the payload of a bookmark mark. ID is zero until the
// backend confirms the annotation, after which it is immutable.
type BookmarkData struct {
	ID          int64     `json:"id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

// IssueData is the payload of an issue mark. ID is zero until the backend
// confirms the annotation, after which it is immutable.
type IssueData struct {
	ID          int64         `json:"id,omitempty"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Priority    IssuePriority `json:"priority,omitempty"`
	Type        IssueType     `json:"issue_type,omitempty"`
	Status      string        `json:"status,omitempty"`
	CreatedAt   time.Time     `json:"created_at,omitempty"`
}

// Mark is a tagged union over the mark variants. Boolean toggles carry no
// payload; Bookmark and Issue populate the matching pointer; unknown kinds
// keep their raw JSON payload for round-tripping.
type Mark struct {
	Kind     MarkKind
	Bookmark *BookmarkData
	Issue    *IssueData
	Raw      json.RawMessage
}

// Bold, Italic, Underline and the alignment constructors build the
// payload-free toggle marks.
func Bold() Mark        { return Mark{Kind: MarkBold} }
func Italic() Mark      { return Mark{Kind: MarkItalic} }
func Underline() Mark   { return Mark{Kind: MarkUnderline} }
func AlignLeft() Mark   { return Mark{Kind: MarkAlignLeft} }
func AlignCenter() Mark { return Mark{Kind: MarkAlignCenter} }
func AlignRight() Mark  { return Mark{Kind: MarkAlignRight} }

// BookmarkMark builds a bookmark mark around its payload.
func BookmarkMark(data BookmarkData) Mark {
	return Mark{Kind: MarkBookmark, Bookmark: &data}
}

// IssueMark builds an issue mark around its payload.
func IssueMark(data IssueData) Mark {
	return Mark{Kind: MarkIssue, Issue: &data}
}

// Confirmed reports whether an annotation mark carries a server-assigned
// id. Toggle marks are trivially confirmed.
func (m Mark) Confirmed() bool {
	switch m.Kind {
	case MarkBookmark:
		return m.Bookmark != nil && m.Bookmark.ID != 0
	case MarkIssue:
		return m.Issue != nil && m.Issue.ID != 0
	}
	return true
}

// Equal compares kind and payload. Used when merging adjacent runs: two
// runs only merge when every mark matches exactly.
func (m Mark) Equal(other Mark) bool {
	if m.Kind != other.Kind {
		return false
	}
	switch {
	case m.Bookmark != nil || other.Bookmark != nil:
		if m.Bookmark == nil || other.Bookmark == nil {
			return false
		}
		return *m.Bookmark == *other.Bookmark
	case m.Issue != nil || other.Issue != nil:
		if m.Issue == nil || other.Issue == nil {
			return false
		}
		return *m.Issue == *other.Issue
	}
	return bytes.Equal(m.Raw, other.Raw)
}

// Clone returns a copy sharing no payload storage.
func (m Mark) Clone() Mark {
	out := Mark{Kind: m.Kind}
	if m.Bookmark != nil {
		b := *m.Bookmark
		out.Bookmark = &b
	}
	if m.Issue != nil {
		i := *m.Issue
		out.Issue = &i
	}
	if m.Raw != nil {
		out.Raw = append(json.RawMessage(nil), m.Raw...)
	}
	return out
}

func cloneMarks(marks []Mark) []Mark {
	if len(marks) == 0 {
		return nil
	}
	out := make([]Mark, len(marks))
	for i, m := range marks {
		out[i] = m.Clone()
	}
	return out
}

func marksEqual(a, b []Mark) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
