package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"nihss-scoring-service/internal/app"
	"nihss-scoring-service/internal/domain"
	"nihss-scoring-service/internal/nihss"
)

var (
	errInvalidPayload     = errors.New("invalid selection payload")
	errUnsupportedMessage = errors.New("unsupported message type")
)

// selectionPayload is the wire form of a selection: an option index or an option code.
type selectionPayload struct {
	ItemID string `json:"itemId"`
	Option *int   `json:"option,omitempty"`
	Code   string `json:"code,omitempty"`
}

func (p selectionPayload) selection() domain.Selection {
	return domain.Selection{ItemID: p.ItemID, Option: p.Option, Code: p.Code}
}

type scaleItem struct {
	nihss.Item
	ComaOverride *int `json:"comaOverride,omitempty"`
}

func ScaleHandler() http.HandlerFunc {
	items := nihss.Items()
	out := make([]scaleItem, 0, len(items))
	for _, item := range items {
		entry := scaleItem{Item: item}
		if v, ok := nihss.ComaOverride(item.ID); ok {
			v := v
			entry.ComaOverride = &v
		}
		out = append(out, entry)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, out)
	}
}

func StartHandler(service *app.AssessmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := service.Start(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, snap)
	}
}

func GetHandler(service *app.AssessmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := service.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func SelectHandler(service *app.AssessmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload selectionPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.ItemID == "" {
			http.Error(w, errInvalidPayload.Error(), http.StatusBadRequest)
			return
		}
		snap, err := service.Select(r.Context(), chi.URLParam(r, "id"), payload.selection())
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func ResetHandler(service *app.AssessmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := service.Reset(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func FinalizeHandler(service *app.AssessmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		record, err := service.Finalize(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, record)
	}
}

func DiscardHandler(service *app.AssessmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := service.Discard(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func RecordHandler(service *app.AssessmentService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		record, err := service.Record(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, record)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrAssessmentNotFound), errors.Is(err, domain.ErrRecordNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrItemLocked), errors.Is(err, domain.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidItem), errors.Is(err, domain.ErrInvalidOption):
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, errorPayload{Message: err.Error()})
}
