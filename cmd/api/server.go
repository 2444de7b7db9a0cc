package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"medmarket/auth"
	"medmarket/customer"
	"medmarket/listing"
	"medmarket/vendor"
)

type ctxKey string

const (
	ctxKeyUserID ctxKey = "user_id"
	ctxKeyRole   ctxKey = "role"
)

type authService interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*auth.User, error)
	Login(ctx context.Context, req auth.LoginRequest) (auth.LoginResult, error)
	VerifyToken(token string) (string, auth.Role, error)
}

type listingService interface {
	Create(ctx context.Context, params listing.CreateParams) (listing.Listing, error)
	List(ctx context.Context, filters listing.Filters) (listing.ListResult, error)
	Get(ctx context.Context, id string) (listing.Listing, error)
	Close(ctx context.Context, params listing.StatusChangeParams) (listing.Listing, error)
	Cancel(ctx context.Context, params listing.StatusChangeParams) (listing.Listing, error)
}

type proposalService interface {
	Submit(ctx context.Context, params listing.SubmitParams) (listing.Proposal, error)
	SetStatus(ctx context.Context, params listing.SetStatusParams) (listing.Proposal, error)
	ListForListing(ctx context.Context, listingID string) ([]listing.Proposal, error)
}

type solvedService interface {
	SolvedListingsFor(ctx context.Context, vendorUserID string) ([]listing.Listing, error)
}

type vendorService interface {
	Create(ctx context.Context, params vendor.CreateParams) (vendor.Vendor, error)
	Profile(ctx context.Context, userID string) (vendor.ProfileView, error)
	RecordVerification(ctx context.Context, vendorUserID, customerUserID, customerName string) error
	AddTestimonial(ctx context.Context, params vendor.AddTestimonialParams) (vendor.Testimonial, error)
}

type customerService interface {
	Save(ctx context.Context, p customer.Institution) (customer.Institution, error)
	Get(ctx context.Context, userID string) (customer.Institution, error)
	Completion(ctx context.Context, userID string) (int, error)
}

// Server exposes the domain services over HTTP and maps domain sentinels to
// status codes. All identity remapping happens here, before identities
// reach the services.
type Server struct {
	authService     authService
	listingService  listingService
	proposalService proposalService
	solvedService   solvedService
	vendorService   vendorService
	customerService customerService
}

func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/register", s.handleRegister)
	mux.HandleFunc("/api/auth/login", s.handleLogin)
	mux.HandleFunc("/api/listings", s.handleListings)
	mux.HandleFunc("/api/listings/", s.handleListingDetail)
	mux.HandleFunc("/api/proposals/", s.handleProposalStatus)
	mux.HandleFunc("/api/vendors", s.handleVendors)
	mux.HandleFunc("/api/vendors/", s.handleVendorDetail)
	mux.HandleFunc("/api/profile", s.handleProfile)
	mux.HandleFunc("/api/profile/completion", s.handleProfileCompletion)
	return mux
}

type listingResponse struct {
	ID             string `json:"id"`
	CustomerUserID string `json:"customer_user_id"`
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	Category       string `json:"category,omitempty"`
	Budget         string `json:"budget,omitempty"`
	Timeline       string `json:"timeline,omitempty"`
	Status         string `json:"status"`
	ProposalsCount int    `json:"proposals_count"`
	CreatedAt      string `json:"created_at"`
}

type proposalResponse struct {
	ID               string `json:"id"`
	ListingID        string `json:"listing_id"`
	VendorUserID     string `json:"vendor_user_id"`
	VendorName       string `json:"vendor_name"`
	ProposalText     string `json:"proposal_text"`
	ProposedPrice    string `json:"proposed_price,omitempty"`
	ProposedTimeline string `json:"proposed_timeline,omitempty"`
	Status           string `json:"status"`
	SubmittedAt      string `json:"submitted_at"`
}

type testimonialResponse struct {
	ID           string  `json:"id"`
	CustomerName string  `json:"customer_name"`
	Title        *string `json:"customer_title,omitempty"`
	Text         string  `json:"testimonial"`
	Metrics      *string `json:"metrics,omitempty"`
	Verified     bool    `json:"verified"`
	CreatedAt    string  `json:"created_at"`
}

type vendorResponse struct {
	UserID       string                `json:"user_id"`
	CompanyName  string                `json:"company_name"`
	Description  string                `json:"description,omitempty"`
	Verified     bool                  `json:"verified"`
	Testimonials []testimonialResponse `json:"testimonials"`
	CreatedAt    string                `json:"created_at"`
}

func toListingResponse(l listing.Listing) listingResponse {
	return listingResponse{
		ID:             l.ID,
		CustomerUserID: l.CustomerUserID,
		Title:          l.Title,
		Description:    l.Description,
		Category:       l.Category,
		Budget:         l.Budget,
		Timeline:       l.Timeline,
		Status:         string(l.Status),
		ProposalsCount: l.ProposalsCount,
		CreatedAt:      l.CreatedAt.Format(time.RFC3339),
	}
}

func toProposalResponse(p listing.Proposal) proposalResponse {
	return proposalResponse{
		ID:               p.ID,
		ListingID:        p.ListingID,
		VendorUserID:     p.VendorUserID,
		VendorName:       p.VendorName,
		ProposalText:     p.ProposalText,
		ProposedPrice:    p.ProposedPrice,
		ProposedTimeline: p.ProposedTimeline,
		Status:           string(p.Status),
		SubmittedAt:      p.SubmittedAt.Format(time.RFC3339),
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req auth.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.authService.Register(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrDuplicateEmail):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, auth.ErrWeakPassword):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":    user.ID,
		"email": user.Email,
		"role":  user.Role,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := s.authService.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": result.Token,
		"user": map[string]any{
			"id":    result.User.ID,
			"email": result.User.Email,
			"role":  result.User.Role,
		},
	})
}

func (s *Server) handleListings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		filters := listing.Filters{
			Status:    listing.Status(q.Get("status")),
			Category:  q.Get("category"),
			SortKey:   q.Get("sort"),
			SortOrder: q.Get("order"),
		}
		filters.Page, filters.PageSize = pagination(q.Get("page"), q.Get("page_size"))

		result, err := s.listingService.List(r.Context(), filters)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "list listings failed")
			return
		}

		items := make([]listingResponse, 0, len(result.Items))
		for _, l := range result.Items {
			items = append(items, toListingResponse(l))
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": result.Total})

	case http.MethodPost:
		userID, role, ok := s.requireAuth(w, r)
		if !ok {
			return
		}
		if role != auth.RoleCustomer && role != auth.RoleAdmin {
			writeError(w, http.StatusForbidden, "only customers may post listings")
			return
		}

		var body struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Category    string `json:"category"`
			Budget      string `json:"budget"`
			Timeline    string `json:"timeline"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.Title == "" {
			writeError(w, http.StatusBadRequest, "title is required")
			return
		}

		created, err := s.listingService.Create(r.Context(), listing.CreateParams{
			CustomerUserID: userID,
			Title:          body.Title,
			Description:    body.Description,
			Category:       body.Category,
			Budget:         body.Budget,
			Timeline:       body.Timeline,
		})
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, toListingResponse(created))

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleListingDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/listings/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "listing id required")
		return
	}
	listingID := parts[0]

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		l, err := s.listingService.Get(r.Context(), listingID)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		proposals, err := s.proposalService.ListForListing(r.Context(), listingID)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		items := make([]proposalResponse, 0, len(proposals))
		for _, p := range proposals {
			items = append(items, toProposalResponse(p))
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"listing":   toListingResponse(l),
			"proposals": items,
		})

	case len(parts) == 2 && parts[1] == "proposals" && r.Method == http.MethodPost:
		userID, role, ok := s.requireAuth(w, r)
		if !ok {
			return
		}
		if role != auth.RoleVendor {
			writeError(w, http.StatusForbidden, "only vendors may submit proposals")
			return
		}

		var body struct {
			ProposalText     string `json:"proposal_text"`
			ProposedPrice    string `json:"proposed_price"`
			ProposedTimeline string `json:"proposed_timeline"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if body.ProposalText == "" {
			writeError(w, http.StatusBadRequest, "proposal_text is required")
			return
		}

		created, err := s.proposalService.Submit(r.Context(), listing.SubmitParams{
			ListingID:        listingID,
			VendorUserID:     userID,
			ProposalText:     body.ProposalText,
			ProposedPrice:    body.ProposedPrice,
			ProposedTimeline: body.ProposedTimeline,
		})
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toProposalResponse(created))

	case len(parts) == 2 && (parts[1] == "close" || parts[1] == "cancel") && r.Method == http.MethodPost:
		userID, role, ok := s.requireAuth(w, r)
		if !ok {
			return
		}
		params := listing.StatusChangeParams{
			ListingID: listingID,
			ActorID:   userID,
			ActorRole: string(role),
		}
		var (
			updated listing.Listing
			err     error
		)
		if parts[1] == "close" {
			updated, err = s.listingService.Close(r.Context(), params)
		} else {
			updated, err = s.listingService.Cancel(r.Context(), params)
		}
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toListingResponse(updated))

	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) handleProposalStatus(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/proposals/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "status" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID, role, ok := s.requireAuth(w, r)
	if !ok {
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := s.proposalService.SetStatus(r.Context(), listing.SetStatusParams{
		ProposalID: parts[0],
		ActorID:    userID,
		ActorRole:  string(role),
		NewStatus:  listing.ProposalStatus(body.Status),
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProposalResponse(updated))
}

func (s *Server) handleVendors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, role, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	if role != auth.RoleVendor {
		writeError(w, http.StatusForbidden, "only vendors may create vendor profiles")
		return
	}

	var body struct {
		CompanyName string `json:"company_name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := s.vendorService.Create(r.Context(), vendor.CreateParams{
		UserID:      userID,
		CompanyName: body.CompanyName,
		Description: body.Description,
	})
	if err != nil {
		if errors.Is(err, vendor.ErrDuplicate) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, vendorResponse{
		UserID:       created.UserID,
		CompanyName:  created.CompanyName,
		Description:  created.Description,
		Verified:     created.Verified,
		Testimonials: []testimonialResponse{},
		CreatedAt:    created.CreatedAt.Format(time.RFC3339),
	})
}

func (s *Server) handleVendorDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/vendors/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "vendor id required")
		return
	}
	vendorID := auth.CanonicalIdentity(parts[0])

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		view, err := s.vendorService.Profile(r.Context(), vendorID)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		testimonials := make([]testimonialResponse, 0, len(view.Testimonials))
		for _, t := range view.Testimonials {
			testimonials = append(testimonials, testimonialResponse{
				ID:           t.ID,
				CustomerName: t.CustomerName,
				Title:        t.CustomerTitle,
				Text:         t.Text,
				Metrics:      t.Metrics,
				Verified:     t.Verified,
				CreatedAt:    t.CreatedAt.Format(time.RFC3339),
			})
		}
		writeJSON(w, http.StatusOK, vendorResponse{
			UserID:       view.Vendor.UserID,
			CompanyName:  view.Vendor.CompanyName,
			Description:  view.Vendor.Description,
			Verified:     view.Vendor.Verified,
			Testimonials: testimonials,
			CreatedAt:    view.Vendor.CreatedAt.Format(time.RFC3339),
		})

	case len(parts) == 2 && parts[1] == "solved" && r.Method == http.MethodGet:
		solved, err := s.solvedService.SolvedListingsFor(r.Context(), vendorID)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		items := make([]listingResponse, 0, len(solved))
		for _, l := range solved {
			items = append(items, toListingResponse(l))
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})

	case len(parts) == 2 && parts[1] == "testimonials" && r.Method == http.MethodPost:
		userID, role, ok := s.requireAuth(w, r)
		if !ok {
			return
		}

		var body struct {
			CustomerName  string  `json:"customer_name"`
			CustomerTitle *string `json:"customer_title"`
			Text          string  `json:"testimonial"`
			Metrics       *string `json:"metrics"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		params := vendor.AddTestimonialParams{
			VendorUserID:  vendorID,
			CustomerName:  body.CustomerName,
			CustomerTitle: body.CustomerTitle,
			Text:          body.Text,
			Metrics:       body.Metrics,
		}
		switch role {
		case auth.RoleCustomer:
			params.SubmittedByCustomer = true
			params.CustomerUserID = userID
		case auth.RoleVendor:
			if userID != vendorID {
				writeError(w, http.StatusForbidden, "vendors may only submit to their own profile")
				return
			}
		default:
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}

		created, err := s.vendorService.AddTestimonial(r.Context(), params)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, testimonialResponse{
			ID:           created.ID,
			CustomerName: created.CustomerName,
			Title:        created.CustomerTitle,
			Text:         created.Text,
			Metrics:      created.Metrics,
			Verified:     created.Verified,
			CreatedAt:    created.CreatedAt.Format(time.RFC3339),
		})

	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	if role != auth.RoleCustomer {
		writeError(w, http.StatusForbidden, "only customers have institution profiles")
		return
	}

	switch r.Method {
	case http.MethodGet:
		p, err := s.customerService.Get(r.Context(), userID)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toInstitutionResponse(p))

	case http.MethodPut:
		var body struct {
			InstitutionName   string   `json:"institution_name"`
			InstitutionType   string   `json:"institution_type"`
			State             string   `json:"state"`
			Country           string   `json:"country"`
			SelectedSolutions []string `json:"selected_solutions"`
			AdditionalNotes   string   `json:"additional_notes"`
			ContactName       string   `json:"contact_name"`
			ContactTitle      string   `json:"contact_title"`
			ContactEmail      string   `json:"contact_email"`
			ContactPhone      string   `json:"contact_phone"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		saved, err := s.customerService.Save(r.Context(), customer.Institution{
			UserID:            userID,
			InstitutionName:   body.InstitutionName,
			InstitutionType:   body.InstitutionType,
			State:             body.State,
			Country:           body.Country,
			SelectedSolutions: body.SelectedSolutions,
			AdditionalNotes:   body.AdditionalNotes,
			ContactName:       body.ContactName,
			ContactTitle:      body.ContactTitle,
			ContactEmail:      body.ContactEmail,
			ContactPhone:      body.ContactPhone,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "save profile failed")
			return
		}
		writeJSON(w, http.StatusOK, toInstitutionResponse(saved))

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleProfileCompletion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, _, ok := s.requireAuth(w, r)
	if !ok {
		return
	}

	score, err := s.customerService.Completion(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "completion failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"completion": score})
}

type institutionResponse struct {
	InstitutionName   string   `json:"institution_name"`
	InstitutionType   string   `json:"institution_type"`
	State             string   `json:"state"`
	Country           string   `json:"country"`
	SelectedSolutions []string `json:"selected_solutions"`
	AdditionalNotes   string   `json:"additional_notes"`
	ContactName       string   `json:"contact_name"`
	ContactTitle      string   `json:"contact_title"`
	ContactEmail      string   `json:"contact_email"`
	ContactPhone      string   `json:"contact_phone"`
}

func toInstitutionResponse(p customer.Institution) institutionResponse {
	return institutionResponse{
		InstitutionName:   p.InstitutionName,
		InstitutionType:   p.InstitutionType,
		State:             p.State,
		Country:           p.Country,
		SelectedSolutions: p.SelectedSolutions,
		AdditionalNotes:   p.AdditionalNotes,
		ContactName:       p.ContactName,
		ContactTitle:      p.ContactTitle,
		ContactEmail:      p.ContactEmail,
		ContactPhone:      p.ContactPhone,
	}
}

// requireAuth resolves the bearer token to a canonical identity and role.
func (s *Server) requireAuth(w http.ResponseWriter, r *http.Request) (string, auth.Role, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return "", "", false
	}

	userID, role, err := s.authService.VerifyToken(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return "", "", false
	}

	return auth.CanonicalIdentity(userID), role, true
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, listing.ErrNotFound),
		errors.Is(err, listing.ErrProposalNotFound),
		errors.Is(err, vendor.ErrNotFound),
		errors.Is(err, customer.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, listing.ErrProposalDuplicate):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, listing.ErrNotAccepting),
		errors.Is(err, listing.ErrInvalidTransition),
		errors.Is(err, listing.ErrCloseInvalidState):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, listing.ErrVendorProfileMissing):
		writeError(w, http.StatusPreconditionFailed, err.Error())
	case errors.Is(err, listing.ErrProposalForbidden),
		errors.Is(err, listing.ErrCloseForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, vendor.ErrTestimonialTextRequired),
		errors.Is(err, vendor.ErrCustomerIdentityRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func pagination(page, pageSize string) (int, int) {
	p := atoiDefault(page, 1)
	size := atoiDefault(pageSize, 20)
	return p, size
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return def
		}
		n = n*10 + int(c-'0')
	}
	if n == 0 {
		return def
	}
	return n
}
