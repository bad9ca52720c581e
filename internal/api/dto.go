package api

import (
	"bytes"
	"encoding/json"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notegraph/internal/aigateway"
	"github.com/starford/notegraph/internal/linkgraph"
	"github.com/starford/notegraph/internal/models"
	"github.com/starford/notegraph/internal/reconcile"
	"github.com/starford/notegraph/internal/storage"
)

// optionalRef distinguishes an absent field from an explicit null.
type optionalRef struct {
	Set   bool
	Value *string
}

func (o *optionalRef) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	FolderID *string `json:"folderId"`
}

// UpdateNoteRequest is a partial note update. A null folderId unfiles the
// note; an absent one leaves it alone.
type UpdateNoteRequest struct {
	Title      *string     `json:"title"`
	Content    *string     `json:"content"`
	FolderID   optionalRef `json:"folderId"`
	Tags       []string    `json:"tags"`
	IsFavorite *bool       `json:"isFavorite"`
}

func (r UpdateNoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Tags, validation.Each(validation.Required)),
	)
}

// DraftRequest carries editor changes for debounced saving.
type DraftRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

func (r DraftRequest) Validate() error {
	if r.Title == nil && r.Content == nil {
		return validation.NewError("validation_draft_empty", "title or content is required")
	}
	return nil
}

// TagNameRequest names a tag, for tagging a note or renaming a tag.
type TagNameRequest struct {
	Name string `json:"name"`
}

func (r TagNameRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.By(func(v any) error {
			if strings.TrimSpace(v.(string)) == "" {
				return validation.NewError("validation_blank", "must not be blank")
			}
			return nil
		})),
	)
}

// CreateTagRequest is the request body for creating a tag.
type CreateTagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (r CreateTagRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Color, validation.In(models.ColorValues()...)),
	)
}

// MergeTagRequest names the tag that absorbs the source.
type MergeTagRequest struct {
	TargetID string `json:"targetId"`
}

func (r MergeTagRequest) Validate() error {
	return validation.ValidateStruct(&r, validation.Field(&r.TargetID, validation.Required))
}

// TransformRequest asks the AI gateway to rewrite text.
type TransformRequest struct {
	Operation aigateway.Operation `json:"operation"`
	Text      string              `json:"text"`
	Arg       string              `json:"arg"`
}

func (r TransformRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Operation, validation.Required, validation.In(
			aigateway.OpImprove, aigateway.OpGrammar, aigateway.OpShorter, aigateway.OpLonger,
			aigateway.OpTone, aigateway.OpSummarize, aigateway.OpContinue, aigateway.OpTranslate,
		)),
	)
}

// TransformResponse carries the rewritten text.
type TransformResponse struct {
	Text string `json:"text"`
}

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []models.Note `json:"notes"`
	Total int           `json:"total"`
}

// GraphResponse wraps the link graph.
type GraphResponse struct {
	Nodes []linkgraph.Node `json:"nodes"`
	Links []linkgraph.Edge `json:"links"`
}

// SearchResponse lists ranked search hits.
type SearchResponse struct {
	Hits  []storage.SearchHit `json:"hits"`
	Total int                 `json:"total"`
}

// ImportResponse reports an import outcome.
type ImportResponse = reconcile.Result
