package server

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/kkfinancial/loan-consult/internal/calculator"
	"github.com/kkfinancial/loan-consult/internal/leads"
	"github.com/kkfinancial/loan-consult/internal/site"
	"github.com/kkfinancial/loan-consult/pkg/constants"
	"github.com/kkfinancial/loan-consult/pkg/emi"
	"github.com/kkfinancial/loan-consult/pkg/format"
	"github.com/kkfinancial/loan-consult/pkg/validation"
	"go.uber.org/zap"
)

var pageFiles = []string{
	"home.html",
	"about.html",
	"services.html",
	"calculator.html",
	"contact.html",
	"notfound.html",
}

type pageData struct {
	Title   string
	Active  string
	Site    *site.Content
	Year    int
	Version string
	Data    interface{}
}

// rangeSpec holds slider bounds as attribute strings.
type rangeSpec struct {
	Min, Max, Step string
}

func newRange(lo, hi, step float64) rangeSpec {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return rangeSpec{Min: f(lo), Max: f(hi), Step: f(step)}
}

type calculatorView struct {
	Inputs       calculator.Inputs
	Snapshot     calculator.Snapshot
	Yearly       []emi.YearSummary
	ShowSchedule bool
	Amount       rangeSpec
	Rate         rangeSpec
	Tenure       rangeSpec
}

type contactView struct {
	Form        leads.ConsultationRequest
	Errors      map[string]string
	Submitted   bool
	LeadID      string
	Mailto      string
	LoanOptions []site.LoanOption
	Feedback    feedbackView
	Failure     string
}

type feedbackView struct {
	Form      leads.Feedback
	Errors    map[string]string
	Submitted bool
	Mailto    string
}

func (h *handler) parsePages() map[string]*template.Template {
	// safeURL marks tel: links, which html/template would otherwise reject.
	funcs := template.FuncMap{
		"rupees":      func(v float64) string { return format.Rupees(v, h.grouping) },
		"pct":         func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) },
		"ratings":     func() []int { return []int{5, 4, 3, 2, 1} },
		"ratingLabel": leads.RatingLabel,
		"safeURL":     func(s string) template.URL { return template.URL(s) },
	}

	pages := make(map[string]*template.Template, len(pageFiles))
	for _, name := range pageFiles {
		tmpl := template.Must(template.New("layout.html").Funcs(funcs).ParseFS(templateFiles,
			"templates/layout.html", "templates/"+name))
		pages[name] = tmpl
	}
	return pages
}

func (h *handler) render(w http.ResponseWriter, status int, name string, data pageData) {
	tmpl, ok := h.pages[name]
	if !ok {
		h.logger.Error("unknown page template",
			zap.String("op", "server.render"),
			zap.String("page", name),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	data.Site = h.content
	data.Version = h.version
	data.Year = h.now().Year()

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		h.logger.Error("failed to render page",
			zap.String("op", "server.render"),
			zap.String("page", name),
			zap.Error(err),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("failed to write page",
			zap.String("op", "server.render"),
			zap.String("page", name),
			zap.Error(err),
		)
	}
}

func (h *handler) handleHome(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "home.html", pageData{Title: "Home", Active: "home"})
}

func (h *handler) handleAbout(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "about.html", pageData{Title: "About Us", Active: "about"})
}

func (h *handler) handleServices(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "services.html", pageData{Title: "Services", Active: "services"})
}

func (h *handler) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		h.handleAPINotFound(w, r)
		return
	}
	h.render(w, http.StatusNotFound, "notfound.html", pageData{Title: "Page Not Found"})
}

// handleCalculator renders the calculator for the query's inputs, or the
// defaults when the query is empty.
func (h *handler) handleCalculator(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := calculator.DefaultInputs()
	if len(q) > 0 {
		in = calculator.Inputs{
			Principal: q.Get("principal"),
			Rate:      q.Get("rate"),
			Tenure:    q.Get("tenure"),
			Unit:      emi.Years,
		}
		if unit := q.Get("unit"); unit != "" {
			in.Unit = emi.ParseTenureUnit(unit)
		}
	}

	view := calculatorView{
		Inputs:       in,
		Snapshot:     calculator.Evaluate(in, h.grouping),
		ShowSchedule: q.Get("schedule") != "",
		Amount:       newRange(constants.MinLoanAmount, constants.MaxLoanAmount, constants.LoanAmountStep),
		Rate:         newRange(constants.MinInterestRate, constants.MaxInterestRate, constants.InterestStep),
		Tenure:       newRange(constants.MinTenureYears, constants.MaxTenureYears, 1),
	}
	if view.ShowSchedule && view.Snapshot.Computable {
		if schedule, ok := emi.Schedule(view.Snapshot.Parameters); ok {
			view.Yearly = emi.Yearly(schedule)
		}
	}

	h.render(w, http.StatusOK, "calculator.html", pageData{Title: "EMI Calculator", Active: "calculator", Data: view})
}

func (h *handler) newContactView() contactView {
	return contactView{
		Form:        leads.ConsultationRequest{City: constants.DefaultCity},
		LoanOptions: h.content.LoanOptions(),
	}
}

func (h *handler) handleContact(w http.ResponseWriter, r *http.Request) {
	view := h.newContactView()
	if lt := r.URL.Query().Get("loanType"); lt != "" {
		view.Form.LoanType = leads.LoanType(lt)
	}
	h.render(w, http.StatusOK, "contact.html", pageData{Title: "Contact Us", Active: "contact", Data: view})
}

func (h *handler) parseForm(w http.ResponseWriter, r *http.Request) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return false
	}
	return true
}

func (h *handler) allowSubmission(r *http.Request) bool {
	return h.limiter == nil || h.limiter.Allow(clientKey(r))
}

func (h *handler) handleContactSubmit(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}

	view := h.newContactView()
	view.Form = leads.ConsultationRequest{
		FullName:   r.PostForm.Get("fullName"),
		Phone:      r.PostForm.Get("phone"),
		Email:      r.PostForm.Get("email"),
		City:       r.PostForm.Get("city"),
		LoanType:   leads.LoanType(r.PostForm.Get("loanType")),
		LoanAmount: r.PostForm.Get("loanAmount"),
		Income:     r.PostForm.Get("income"),
		Message:    r.PostForm.Get("message"),
		Consent:    r.PostForm.Get("consent") != "",
	}
	page := pageData{Title: "Contact Us", Active: "contact"}

	if !h.allowSubmission(r) {
		view.Failure = "You have sent several requests in a short time. Please wait a minute or call us directly."
		page.Data = view
		h.render(w, http.StatusTooManyRequests, "contact.html", page)
		return
	}

	sub, err := h.leads.Submit(r.Context(), view.Form)
	if err != nil {
		status := http.StatusInternalServerError
		if verrs, ok := validation.AsErrors(err); ok {
			status = http.StatusBadRequest
			view.Errors = fieldMessages(verrs)
		} else {
			h.logger.Error("failed to submit consultation form",
				zap.String("op", "server.handleContactSubmit"),
				zap.Error(err),
			)
			view.Failure = fmt.Sprintf("We could not save your request. Please call us on %s.", h.content.Contact.PhoneDisplay)
		}
		page.Data = view
		h.render(w, status, "contact.html", page)
		return
	}

	view.Form = sub.Lead.ConsultationRequest
	view.Submitted = true
	view.LeadID = sub.Lead.ID
	view.Mailto = sub.Draft.Link()
	page.Data = view
	h.render(w, http.StatusOK, "contact.html", page)
}

func (h *handler) handleFeedbackSubmit(w http.ResponseWriter, r *http.Request) {
	if !h.parseForm(w, r) {
		return
	}

	rating, _ := strconv.Atoi(r.PostForm.Get("rating"))
	view := h.newContactView()
	view.Feedback.Form = leads.Feedback{
		CustomerName:    r.PostForm.Get("customerName"),
		CustomerEmail:   r.PostForm.Get("customerEmail"),
		ServiceCategory: r.PostForm.Get("serviceCategory"),
		Rating:          rating,
		Message:         r.PostForm.Get("feedbackMessage"),
		Consent:         r.PostForm.Get("feedbackConsent") != "",
	}
	page := pageData{Title: "Contact Us", Active: "contact"}

	if !h.allowSubmission(r) {
		view.Failure = "You have sent several requests in a short time. Please wait a minute and try again."
		page.Data = view
		h.render(w, http.StatusTooManyRequests, "contact.html", page)
		return
	}

	draft, err := h.leads.SubmitFeedback(r.Context(), view.Feedback.Form)
	if err != nil {
		status := http.StatusInternalServerError
		if verrs, ok := validation.AsErrors(err); ok {
			status = http.StatusBadRequest
			view.Feedback.Errors = fieldMessages(verrs)
		} else {
			h.logger.Error("failed to submit feedback form",
				zap.String("op", "server.handleFeedbackSubmit"),
				zap.Error(err),
			)
			view.Failure = "We could not record your feedback. Please try again later."
		}
		page.Data = view
		h.render(w, status, "contact.html", page)
		return
	}

	view.Feedback.Submitted = true
	view.Feedback.Mailto = draft.Link()
	page.Data = view
	h.render(w, http.StatusOK, "contact.html", page)
}

func fieldMessages(verrs *validation.Errors) map[string]string {
	out := make(map[string]string, len(verrs.Fields))
	for _, f := range verrs.Fields {
		out[f.Field] = f.Message
	}
	return out
}
