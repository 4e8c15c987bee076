// Package site serves the public marketing pages: landing, capability
// pages, pricing with the ROI calculator and the blog. Pages are rendered
// server-side from templates and markdown embedded in the binary.
package site

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

//go:embed content/blog/*.md
var content embed.FS

// LangFunc picks the interface language for a request.
type LangFunc func(r *http.Request) string

// Site renders the marketing pages.
type Site struct {
	posts []Post
	pages map[string]*template.Template
	lang  LangFunc
}

type pageData struct {
	Title string
	Lang  string
	L     map[string]string
	Data  any
}

// New loads the embedded blog and parses the templates. lang may be nil.
func New(lang LangFunc) (*Site, error) {
	posts, err := LoadPosts(content, "content/blog")
	if err != nil {
		return nil, err
	}
	pages := map[string]*template.Template{}
	for name, body := range map[string]string{
		"landing":      landingTemplate,
		"capabilities": capabilitiesTemplate,
		"capability":   capabilityTemplate,
		"pricing":      pricingTemplate,
		"blog":         blogIndexTemplate,
		"post":         blogPostTemplate,
	} {
		t, err := template.New(name).Parse(layoutTemplate)
		if err != nil {
			return nil, fmt.Errorf("parsing layout: %w", err)
		}
		if _, err := t.Parse(body); err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", name, err)
		}
		pages[name] = t
	}
	if lang == nil {
		lang = func(*http.Request) string { return "en" }
	}
	return &Site{posts: posts, pages: pages, lang: lang}, nil
}

// Posts returns the blog posts, newest first.
func (s *Site) Posts() []Post {
	return s.posts
}

// RegisterRoutes mounts the public pages on r.
func (s *Site) RegisterRoutes(r chi.Router) {
	r.Get("/", s.handleLanding)
	r.Get("/capabilities", s.handleCapabilities)
	r.Get("/capabilities/{slug}", s.handleCapability)
	r.Get("/pricing", s.handlePricing)
	r.Get("/blog", s.handleBlog)
	r.Get("/blog/search-index.json", s.handleSearchIndex)
	r.Get("/blog/{slug}", s.handlePost)
	r.Get("/static/style.css", handleCSS)
	r.Post("/api/roi", handleROI)
}

func (s *Site) render(w http.ResponseWriter, r *http.Request, status int, page, title string, data any) {
	lang := s.lang(r)
	var buf bytes.Buffer
	err := s.pages[page].ExecuteTemplate(&buf, "layout", pageData{
		Title: title,
		Lang:  lang,
		L:     labelsFor(lang),
		Data:  data,
	})
	if err != nil {
		http.Error(w, "rendering page: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func (s *Site) handleLanding(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Capabilities []Capability
		Latest       *Post
	}{Capabilities: capabilities}
	if len(s.posts) > 0 {
		data.Latest = &s.posts[0]
	}
	s.render(w, r, http.StatusOK, "landing", "RFQ automation for industrial procurement", data)
}

func (s *Site) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "capabilities", "Capabilities", capabilities)
}

func (s *Site) handleCapability(w http.ResponseWriter, r *http.Request) {
	c, ok := capabilityBySlug(chi.URLParam(r, "slug"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.render(w, r, http.StatusOK, "capability", c.Title, c)
}

func (s *Site) handlePricing(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := struct {
		Plans  []Plan
		Input  ROIInput
		Result *ROIResult
		Error  string
	}{
		Plans: Plans,
		Input: ROIInput{RFQsPerMonth: 40, HoursPerRFQ: 3, HourlyRate: 60, Plan: "team"},
	}
	if q.Has("rfqs") || q.Has("hours") || q.Has("rate") {
		rfqs, okR := formFloat(q.Get("rfqs"))
		hours, okH := formFloat(q.Get("hours"))
		rate, okT := formFloat(q.Get("rate"))
		data.Input = ROIInput{RFQsPerMonth: rfqs, HoursPerRFQ: hours, HourlyRate: rate, Plan: q.Get("plan")}
		if !okR || !okH || !okT {
			data.Error = "inputs must be finite numbers"
		} else if res, err := ROI(data.Input); err != nil {
			data.Error = err.Error()
		} else {
			data.Result = &res
		}
	}
	s.render(w, r, http.StatusOK, "pricing", "Pricing", data)
}

// formFloat parses a form number. Blank input is 0; malformed or
// non-finite input reports false and yields 0.
func formFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func (s *Site) handleBlog(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "blog", "Blog", s.posts)
}

func (s *Site) handlePost(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	for i := range s.posts {
		if s.posts[i].Slug == slug {
			s.render(w, r, http.StatusOK, "post", s.posts[i].Title, s.posts[i])
			return
		}
	}
	http.NotFound(w, r)
}

func (s *Site) handleSearchIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, BuildSearchIndex(s.posts))
}

func handleCSS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Write([]byte(cssContent))
}

func handleROI(w http.ResponseWriter, r *http.Request) {
	var in ROIInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := ROI(in)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
