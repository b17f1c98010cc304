package main

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/greenfinch/fieldvisit/internal/assessment"
	"github.com/greenfinch/fieldvisit/internal/model"
	"github.com/greenfinch/fieldvisit/internal/ocr"
	"github.com/greenfinch/fieldvisit/internal/report"
	"github.com/greenfinch/fieldvisit/internal/store"
)

// Multipart field names.
const (
	fieldInput      = "input"
	fieldImages     = "images"
	fieldNoteImages = "note_images"
	fieldNotes      = "notes"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type handlers struct {
	svc       *assessment.Service
	store     store.Store
	maxUpload int64
	now       func() time.Time
}

type errorBody struct {
	Error string `json:"error"`
}

type valuationResponse struct {
	Report     *model.Report `json:"report"`
	ResultsURL string        `json:"results_url"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write json response", zap.Error(err))
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

// writeError maps service errors onto HTTP status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var collab *assessment.CollaboratorError
	switch {
	case eris.Is(err, assessment.ErrInvalidInput), eris.Is(err, ocr.ErrNoImages):
		badRequest(w, err.Error())
	case eris.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "report not found"})
	case errors.As(err, &collab):
		zap.L().Warn("collaborator failure", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, errorBody{Error: collab.Collaborator + " service unavailable"})
	default:
		zap.L().Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		if err := h.store.Ping(r.Context()); err != nil {
			zap.L().Warn("health: store ping failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) createValuation(w http.ResponseWriter, r *http.Request) {
	sub, err := h.readSubmission(w, r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}

	rep, err := h.svc.Assess(r.Context(), sub)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, valuationResponse{
		Report:     rep,
		ResultsURL: "/results?" + rep.Result.QueryParams().Encode(),
	})
}

// readSubmission accepts either a JSON AssessmentInput or a multipart form
// carrying the input (as a JSON "input" part or as individual fields) plus
// photo and note image files.
func (h *handlers) readSubmission(w http.ResponseWriter, r *http.Request) (assessment.Submission, error) {
	var sub assessment.Submission
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	if !isMultipart(r) {
		if err := json.NewDecoder(r.Body).Decode(&sub.Input); err != nil {
			return sub, eris.New("invalid request body")
		}
		return sub, nil
	}

	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		return sub, eris.New("invalid multipart form")
	}
	in, err := formInput(r.MultipartForm)
	if err != nil {
		return sub, err
	}
	sub.Input = in
	if sub.Images, err = formImages(r.MultipartForm, fieldImages); err != nil {
		return sub, err
	}
	if sub.NoteImages, err = formImages(r.MultipartForm, fieldNoteImages); err != nil {
		return sub, err
	}
	return sub, nil
}

func isMultipart(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "multipart/form-data"
}

func formInput(form *multipart.Form) (model.AssessmentInput, error) {
	var in model.AssessmentInput
	get := func(key string) string {
		if vs := form.Value[key]; len(vs) > 0 {
			return vs[0]
		}
		return ""
	}

	if raw := get(fieldInput); raw != "" {
		if err := json.Unmarshal([]byte(raw), &in); err != nil {
			return in, eris.New("invalid input field")
		}
		return in, nil
	}

	in.PostalCode = get("postal_code")
	in.NeighbourConfirmation = model.DocStatus(get("neighbour_confirmation"))
	in.EmploymentProof = model.DocStatus(get("employment_proof"))
	in.AddressMatchingAadhaar = model.DocStatus(get("address_matching_aadhaar"))
	in.NearbyConditionText = get("nearby_condition")
	in.RoadAccessText = get("road_access")
	in.RoadWidthText = get("road_width")
	in.NearbySoldPropertyText = get("nearby_sold_property")
	in.PropertyAddress = get("property_address")
	in.RentAgreement = model.DocStatus(get("rent_agreement"))
	in.AdditionalNotes = get("additional_notes")
	if s := get("image_count"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return in, eris.New("image_count must be an integer")
		}
		in.ImageCount = n
	}
	return in, nil
}

func formImages(form *multipart.Form, field string) ([]model.Image, error) {
	headers := form.File[field]
	images := make([]model.Image, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, eris.Wrapf(err, "open upload %s", fh.Filename)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, eris.Wrapf(err, "read upload %s", fh.Filename)
		}
		images = append(images, model.Image{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return images, nil
}

func (h *handlers) listReports(w http.ResponseWriter, r *http.Request) {
	opts, err := parseListOpts(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	reports, err := h.store.ListReports(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": reports})
}

func parseListOpts(r *http.Request) (store.ListOpts, error) {
	q := r.URL.Query()
	opts := store.ListOpts{LoanStatus: model.LoanStatus(q.Get("loan_status"))}
	for name, dst := range map[string]*int{"limit": &opts.Limit, "offset": &opts.Offset} {
		s := q.Get(name)
		if s == "" {
			continue
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return opts, eris.Errorf("%s must be a non-negative integer", name)
		}
		*dst = n
	}
	return opts, nil
}

func (h *handlers) reportStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.store.ReportStats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *handlers) getReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.store.GetReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (h *handlers) exportReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.store.GetReport(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.DownloadFilename+`"`)
	if err := report.RenderHTML(w, report.FromReport(*rep, h.now())); err != nil {
		zap.L().Error("export report", zap.String("report_id", rep.ID), zap.Error(err))
	}
}

func (h *handlers) exportReportsXLSX(w http.ResponseWriter, r *http.Request) {
	opts, err := parseListOpts(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	reports, err := h.store.ListReports(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="fieldvisit_reports.xlsx"`)
	if err := report.WriteXLSX(w, reports); err != nil {
		zap.L().Error("export xlsx", zap.Error(err))
	}
}

// results renders the results page from query parameters alone.
func (h *handlers) results(w http.ResponseWriter, r *http.Request) {
	view := model.ParseResultQuery(r.URL.Query())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.RenderHTML(w, report.FromView(view, h.now())); err != nil {
		zap.L().Error("render results", zap.Error(err))
	}
}

func (h *handlers) extractNotes(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		badRequest(w, "invalid multipart form")
		return
	}
	images, err := formImages(r.MultipartForm, fieldImages)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	res, err := h.svc.ProcessNotes(r.Context(), images, r.FormValue(fieldNotes))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handlers) summarizeNotes(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxUpload)).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		badRequest(w, "text is required")
		return
	}
	sum, err := h.svc.Summarize(r.Context(), req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (h *handlers) analyzeImages(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		badRequest(w, "invalid multipart form")
		return
	}
	images, err := formImages(r.MultipartForm, fieldImages)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if len(images) == 0 {
		badRequest(w, "at least one image is required")
		return
	}
	analyses, err := h.svc.AnalyzeImages(r.Context(), images)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"analyses": analyses})
}
