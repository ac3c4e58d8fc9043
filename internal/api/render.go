package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/acptdev/condrules/internal/htmlform"
	"github.com/acptdev/condrules/internal/telemetry"
	"github.com/acptdev/condrules/internal/validation"
	"github.com/acptdev/condrules/internal/visibility"
	"github.com/acptdev/condrules/internal/watch"
)

type changeDTO struct {
	Name       string `json:"name"`
	FormID     string `json:"formId"`
	Occurrence int    `json:"occurrence"`
	Value      string `json:"value"`
	Checked    bool   `json:"checked"`
}

type renderRequest struct {
	Page      string      `json:"page"`
	BelongsTo string      `json:"belongsTo"`
	ElementID string      `json:"elementId"`
	HTML      string      `json:"html"`
	Changes   []changeDTO `json:"changes,omitempty"`
	UseCache  bool        `json:"useCache"`
}

type renderResponse struct {
	HTML         string                   `json:"html"`
	Decision     visibility.Decision      `json:"decision"`
	Observations []visibility.Observation `json:"observations"`
	Unmatched    []changeDTO              `json:"unmatched,omitempty"`
}

// handleRender loads the posted form into a visibility client, replays the
// changes as user edits, waits for the resulting evaluation and returns the
// form with visibility applied.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RequestTooLargeError(w, r, "request body exceeds 1MB")
			return
		}
		BadRequestError(w, r, ErrCodeInvalidJSON, "request body must be valid JSON")
		return
	}

	params := validation.RenderParams{
		Page:      req.Page,
		BelongsTo: req.BelongsTo,
		ElementID: req.ElementID,
		HTML:      req.HTML,
	}
	for _, ch := range req.Changes {
		params.Changes = append(params.Changes, validation.ChangeParams{
			Name: ch.Name, FormID: ch.FormID, Occurrence: ch.Occurrence,
		})
	}
	if result := validation.ValidateRender(params); !result.Valid {
		ValidationError(w, r, "invalid render request", result.Errors)
		return
	}

	doc, err := htmlform.ParseString(req.HTML)
	if err != nil {
		BadRequestError(w, r, ErrCodeInvalidHTML, err.Error())
		return
	}

	var cache visibility.Cache
	if req.UseCache && s.cache != nil {
		cache = s.cache
	}

	binding := visibility.Binding{Page: req.Page, BelongsTo: req.BelongsTo, ElementID: req.ElementID}
	client, err := visibility.New(r.Context(), binding, doc, s.evaluator, cache,
		visibility.WithLogger(s.logger),
	)
	if err != nil {
		InternalError(w, r, ErrCodeInternal, err.Error())
		return
	}
	defer client.Close()

	var unmatched []changeDTO
	for _, ch := range req.Changes {
		change := watch.Change{
			Name:       ch.Name,
			FormID:     ch.FormID,
			Occurrence: ch.Occurrence,
			Value:      ch.Value,
			Checked:    ch.Checked,
		}
		ctrl, ok := change.ApplyTo(doc)
		if !ok || !client.HandleChange(ctrl) {
			unmatched = append(unmatched, ch)
		}
	}
	client.Flush()
	client.Wait()

	telemetry.RenderedForms.Inc()
	writeJSON(w, http.StatusOK, renderResponse{
		HTML:         doc.String(),
		Decision:     client.LastDecision(),
		Observations: client.Observations(),
		Unmatched:    unmatched,
	})
}
