package assistant

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/rfqpilot/internal/activity"
	"github.com/ziadkadry99/rfqpilot/internal/blob"
	"github.com/ziadkadry99/rfqpilot/internal/extract"
	"github.com/ziadkadry99/rfqpilot/internal/llm"
	"github.com/ziadkadry99/rfqpilot/internal/rfq"
	"github.com/ziadkadry99/rfqpilot/internal/user"
)

const (
	maxUploadBytes = 64 << 20
	unavailableMsg = "the AI service is unavailable right now, please try again"
)

// Routes serves the buyer AI endpoints.
type Routes struct {
	AI       *Gateway
	Rfqs     *rfq.Store
	Activity *activity.Store
	// Blobs keeps uploaded source files; nil disables archiving.
	Blobs  blob.Store
	Logger *slog.Logger
}

// ParseResponse is returned by the parse endpoint. Rfq is set when the
// parsed fragment was merged into an existing RFQ.
type ParseResponse struct {
	Parsed  *rfq.Rfq `json:"parsed"`
	Rfq     *rfq.Rfq `json:"rfq,omitempty"`
	Uploads []string `json:"uploads,omitempty"`
}

// RegisterRoutes mounts the AI endpoints. Callers wrap r with
// user.RequireAuth.
func RegisterRoutes(r chi.Router, rt *Routes) {
	if rt.Logger == nil {
		rt.Logger = slog.Default()
	}
	r.Post("/api/ai/parse", rt.handleParse)
	r.Post("/api/ai/market", rt.handleMarket)
	r.Post("/api/ai/edit-image", rt.handleEditImage)
	r.Post("/api/rfqs/{id}/audit", rt.handleAudit)
}

type upload struct {
	name string
	data []byte
}

// readUploads collects the text field and files of a multipart form, or
// the text of a JSON body.
func readUploads(r *http.Request) (text, rfqID string, files []upload, err error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		var in struct {
			Text  string `json:"text"`
			RfqID string `json:"rfq_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			return "", "", nil, err
		}
		return in.Text, in.RfqID, nil, nil
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return "", "", nil, err
	}
	for _, fh := range r.MultipartForm.File["files"] {
		data, err := readPart(fh)
		if err != nil {
			return "", "", nil, err
		}
		files = append(files, upload{name: fh.Filename, data: data})
	}
	return r.FormValue("text"), r.FormValue("rfq_id"), files, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (rt *Routes) handleParse(w http.ResponseWriter, r *http.Request) {
	id, _ := user.FromContext(r.Context())
	text, rfqID, files, err := readUploads(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var target *rfq.Rfq
	if rfqID != "" {
		target, err = rt.Rfqs.GetOwned(r.Context(), rfqID, id.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if target == nil {
			writeError(w, http.StatusNotFound, "rfq not found")
			return
		}
	}

	results := make([]extract.Result, 0, len(files))
	for _, f := range files {
		res, err := extract.File(f.name, f.data)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		results = append(results, res)
	}
	fileText, attachments := extract.Combine(results)
	if fileText != "" {
		text = strings.TrimSpace(text + "\n\n" + fileText)
	}

	parsed, err := rt.AI.ParseRFQ(r.Context(), text, attachments)
	if errors.Is(err, ErrEmptyInput) {
		writeError(w, http.StatusBadRequest, "provide text or files to parse")
		return
	}
	if err != nil {
		rt.Logger.Error("parse rfq failed", "error", err)
		writeError(w, http.StatusBadGateway, unavailableMsg)
		return
	}

	resp := ParseResponse{Parsed: parsed}
	if target == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	rfq.MergeParsed(target, parsed)
	if err := rt.Rfqs.Save(r.Context(), target); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	rt.Activity.Record(r.Context(), id.ID, activity.ActionRFQUpdated, target.ID, "parsed with AI")
	resp.Rfq = target

	if rt.Blobs != nil {
		for _, f := range files {
			key := blob.UploadKey(target.ID, f.name)
			if _, err := rt.Blobs.Put(r.Context(), key, bytes.NewReader(f.data), http.DetectContentType(f.data)); err != nil {
				rt.Logger.Warn("archiving upload failed", "key", key, "error", err)
				continue
			}
			resp.Uploads = append(resp.Uploads, key)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Routes) handleAudit(w http.ResponseWriter, r *http.Request) {
	id, _ := user.FromContext(r.Context())
	target, err := rt.Rfqs.GetOwned(r.Context(), chi.URLParam(r, "id"), id.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if target == nil {
		writeError(w, http.StatusNotFound, "rfq not found")
		return
	}

	risks, err := rt.AI.AuditRisk(r.Context(), target)
	if err != nil {
		rt.Logger.Error("risk audit failed", "rfq_id", target.ID, "error", err)
		writeError(w, http.StatusBadGateway, unavailableMsg)
		return
	}
	target.Risks = risks
	if err := rt.Rfqs.Save(r.Context(), target); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	rt.Activity.Record(r.Context(), id.ID, activity.ActionRiskAudited, target.ID, riskSummary(risks))
	writeJSON(w, http.StatusOK, risks)
}

func riskSummary(risks []rfq.RiskAnnotation) string {
	high := 0
	for _, r := range risks {
		if r.Severity == rfq.SeverityHigh {
			high++
		}
	}
	return fmt.Sprintf("%d findings, %d high", len(risks), high)
}

func (rt *Routes) handleMarket(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	insight, err := rt.AI.MarketData(r.Context(), in.Query)
	if errors.Is(err, ErrEmptyInput) {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if err != nil {
		rt.Logger.Error("market data failed", "error", err)
		writeError(w, http.StatusBadGateway, unavailableMsg)
		return
	}
	writeJSON(w, http.StatusOK, insight)
}

func (rt *Routes) handleEditImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "expected a multipart form")
		return
	}
	f, fh, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image is required")
		return
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	instruction := strings.TrimSpace(r.FormValue("instruction"))
	if instruction == "" {
		writeError(w, http.StatusBadRequest, "instruction is required")
		return
	}

	img := llm.Attachment{Name: fh.Filename, MIMEType: http.DetectContentType(data), Data: data}
	if !img.IsImage() {
		writeError(w, http.StatusBadRequest, "file is not an image")
		return
	}
	edited, err := rt.AI.EditImage(r.Context(), img, instruction)
	if err != nil {
		rt.Logger.Error("image edit failed", "error", err)
		writeError(w, http.StatusBadGateway, unavailableMsg)
		return
	}
	w.Header().Set("Content-Type", edited.MIMEType)
	w.WriteHeader(http.StatusOK)
	w.Write(edited.Data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
