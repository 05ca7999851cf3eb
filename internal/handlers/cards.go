package handlers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ruthwwikreddy/emergency/internal/models"
	"github.com/ruthwwikreddy/emergency/internal/services"
)

// maxBulkUploadBytes caps bulk import files at 2 MB.
const maxBulkUploadBytes = 2 << 20

// CardRequest is the JSON payload for creating a card. The list fields
// accept either arrays or comma-separated strings.
type CardRequest struct {
	FullName               string                 `json:"fullName"`
	InsuranceStatus        models.InsuranceStatus `json:"insuranceStatus"`
	PreferredHospitals     models.StringList      `json:"preferredHospitals"`
	Allergies              models.StringList      `json:"allergies"`
	FamilyDoctorName       string                 `json:"familyDoctorName"`
	BloodType              string                 `json:"bloodType"`
	CurrentMedication      models.StringList      `json:"currentMedication"`
	EmergencyContactNumber string                 `json:"emergencyContactNumber"`
	VehicleLast4           string                 `json:"vehicleLast4"`
}

func (r CardRequest) toInput() services.CreateCardInput {
	return services.CreateCardInput{
		FullName:               r.FullName,
		InsuranceStatus:        r.InsuranceStatus,
		PreferredHospitals:     r.PreferredHospitals,
		Allergies:              r.Allergies,
		FamilyDoctorName:       r.FamilyDoctorName,
		BloodType:              r.BloodType,
		CurrentMedication:      r.CurrentMedication,
		EmergencyContactNumber: r.EmergencyContactNumber,
		VehicleLast4:           r.VehicleLast4,
	}
}

// CreateCard handles POST /api/cards.
func CreateCard(w http.ResponseWriter, r *http.Request) {
	var req CardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	card, err := services.CreateCard(r.Context(), req.toInput())
	if err != nil {
		writeWorkflowError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, card)
}

// ListCardsResponse pages through created cards, newest first.
type ListCardsResponse struct {
	Success    bool          `json:"success"`
	Data       []models.Card `json:"data"`
	Pagination struct {
		Total      int64 `json:"total"`
		Page       int   `json:"page"`
		TotalPages int64 `json:"totalPages"`
		Limit      int   `json:"limit"`
	} `json:"pagination"`
}

// GetCards handles GET /api/cards.
func GetCards(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	cards, total, err := services.ListCards(r.Context(), page, limit)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "Failed to list cards")
		return
	}

	resp := ListCardsResponse{Success: true, Data: cards}
	resp.Pagination.Total = total
	resp.Pagination.Page = page
	resp.Pagination.TotalPages = (total + int64(limit) - 1) / int64(limit)
	resp.Pagination.Limit = limit

	w.Header().Set("X-Response-Time", fmt.Sprintf("%.2fms", float64(time.Since(start).Microseconds())/1000))
	writeJSON(w, http.StatusOK, resp)
}

// GetCardByID handles GET /api/cards/{id}?v4=<4 digits>: 400 when the
// passcode is missing or malformed, 404 when no record matches id plus
// passcode, 200 with the full record otherwise.
func GetCardByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	v4 := strings.TrimSpace(r.URL.Query().Get("v4"))

	card, err := services.GetCardByID(r.Context(), id, v4)
	if err != nil {
		writeWorkflowError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, card)
}

// BulkCreateRequest accepts either a bare JSON array or {"records":[...]}.
type BulkCreateRequest struct {
	Records []CardRequest `json:"records"`
}

// BulkCreateResponse reports the outcome of a batch import.
type BulkCreateResponse struct {
	Count   int                         `json:"count"`
	Records []services.BulkCreateResult `json:"records"`
}

// BulkCreateCards handles POST /api/cards/bulk.
func BulkCreateCards(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBulkUploadBytes))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	records, err := decodeBulkRecords(body)
	if err != nil || len(records) == 0 {
		writeMessage(w, http.StatusBadRequest, "Provide an array of records in request body or under records[]")
		return
	}

	inputs := make([]services.CreateCardInput, 0, len(records))
	for _, rec := range records {
		inputs = append(inputs, rec.toInput())
	}

	count, results := services.BulkCreateCards(r.Context(), inputs)
	writeJSON(w, http.StatusCreated, BulkCreateResponse{Count: count, Records: results})
}

func decodeBulkRecords(body []byte) ([]CardRequest, error) {
	var records []CardRequest
	if err := json.Unmarshal(body, &records); err == nil {
		return records, nil
	}
	var wrapped BulkCreateRequest
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Records, nil
}

// BulkUploadCards handles POST /api/cards/bulk-upload: a multipart file
// upload of either a JSON array or a CSV with a header row.
func BulkUploadCards(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxBulkUploadBytes); err != nil {
		writeMessage(w, http.StatusBadRequest, `No file uploaded. Use field name "file".`)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, `No file uploaded. Use field name "file".`)
		return
	}
	defer file.Close()

	body, err := io.ReadAll(io.LimitReader(file, maxBulkUploadBytes))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Could not read uploaded file")
		return
	}

	var records []CardRequest
	if strings.HasSuffix(strings.ToLower(header.Filename), ".json") {
		records, err = decodeBulkRecords(body)
	} else {
		records, err = parseCSVRecords(body)
	}
	if err != nil || len(records) == 0 {
		writeMessage(w, http.StatusBadRequest, "No records found in file")
		return
	}

	inputs := make([]services.CreateCardInput, 0, len(records))
	for _, rec := range records {
		inputs = append(inputs, rec.toInput())
	}

	count, results := services.BulkCreateCards(r.Context(), inputs)
	writeJSON(w, http.StatusCreated, BulkCreateResponse{Count: count, Records: results})
}

// parseCSVRecords maps CSV rows onto card requests by header name.
func parseCSVRecords(body []byte) ([]CardRequest, error) {
	reader := csv.NewReader(strings.NewReader(string(body)))
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, nil
	}

	cols := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		cols[strings.TrimSpace(name)] = i
	}

	field := func(row []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	records := make([]CardRequest, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, CardRequest{
			FullName:               field(row, "fullName"),
			InsuranceStatus:        models.InsuranceStatus(field(row, "insuranceStatus")),
			PreferredHospitals:     models.ParseList(field(row, "preferredHospitals")),
			Allergies:              models.ParseList(field(row, "allergies")),
			FamilyDoctorName:       field(row, "familyDoctorName"),
			BloodType:              field(row, "bloodType"),
			CurrentMedication:      models.ParseList(field(row, "currentMedication")),
			EmergencyContactNumber: field(row, "emergencyContactNumber"),
			VehicleLast4:           field(row, "vehicleLast4"),
		})
	}
	return records, nil
}
