package services

import (
	"context"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ruthwwikreddy/emergency/internal/database"
	"github.com/ruthwwikreddy/emergency/internal/dispatch"
	"github.com/ruthwwikreddy/emergency/internal/models"
	"github.com/ruthwwikreddy/emergency/pkg/utils"
)

const cardsCollection = "cards"

// EnsureCardIndexes configures indexes for the cards collection.
// Called on startup from main after Mongo has connected.
func EnsureCardIndexes(ctx context.Context) error {
	col := database.DB.Collection(cardsCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "unique_id", Value: 1}},
			Options: options.Index().SetName("idx_unique_id").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_created_at"),
		},
	}

	for _, m := range indexes {
		if _, err := col.Indexes().CreateOne(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// CreateCardInput is the normalized payload for a new emergency card.
type CreateCardInput struct {
	FullName               string
	InsuranceStatus        models.InsuranceStatus
	PreferredHospitals     []string
	Allergies              []string
	FamilyDoctorName       string
	BloodType              string
	CurrentMedication      []string
	EmergencyContactNumber string
	VehicleLast4           string
}

// Validate applies the same local checks the card form applies before
// anything touches the store.
func (in *CreateCardInput) Validate() error {
	if strings.TrimSpace(in.FullName) == "" {
		return &models.ValidationError{Field: "fullName", Message: "full name is required"}
	}
	if !in.InsuranceStatus.IsValid() {
		return &models.ValidationError{Field: "insuranceStatus", Message: "must be Valid, Invalid, or Expired"}
	}
	if strings.TrimSpace(in.BloodType) == "" {
		return &models.ValidationError{Field: "bloodType", Message: "blood type is required"}
	}
	if !dispatch.ValidPhone(strings.TrimSpace(in.EmergencyContactNumber)) {
		return &models.ValidationError{Field: "emergencyContactNumber", Message: "enter a valid number with country code"}
	}
	if !utils.ValidPasscode(in.VehicleLast4) {
		return &models.ValidationError{Field: "vehicleLast4", Message: "vehicleLast4 must be exactly 4 digits"}
	}
	return nil
}

// CreateCard validates, hashes the passcode, assigns a short unique id,
// and inserts the card.
func CreateCard(ctx context.Context, in CreateCardInput) (*models.Card, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	hash, err := utils.HashPasscode(strings.TrimSpace(in.VehicleLast4))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	card := &models.Card{
		FullName:               strings.TrimSpace(in.FullName),
		InsuranceStatus:        in.InsuranceStatus,
		PreferredHospitals:     orEmpty(in.PreferredHospitals),
		Allergies:              orEmpty(in.Allergies),
		FamilyDoctorName:       strings.TrimSpace(in.FamilyDoctorName),
		BloodType:              strings.TrimSpace(in.BloodType),
		CurrentMedication:      orEmpty(in.CurrentMedication),
		EmergencyContactNumber: strings.TrimSpace(in.EmergencyContactNumber),
		VehicleLast4Hash:       hash,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	col := database.DB.Collection(cardsCollection)

	// Short ids can collide; retry with a fresh one a few times.
	for attempt := 0; attempt < 3; attempt++ {
		card.UniqueID, err = utils.NewShortID()
		if err != nil {
			return nil, err
		}
		_, insertErr := col.InsertOne(ctx, card)
		if insertErr == nil {
			return card, nil
		}
		if !mongo.IsDuplicateKeyError(insertErr) {
			return nil, insertErr
		}
	}
	return nil, &models.ServerError{StatusCode: 500, Message: "could not allocate a unique card id"}
}

// GetCardByID fetches a card by its public id and verifies the passcode.
// A missing record and a wrong passcode are indistinguishable to the
// caller: both are NotFoundError, so the card page evicts its cached
// passcode and re-prompts.
func GetCardByID(ctx context.Context, uniqueID, v4 string) (*models.Card, error) {
	if !utils.ValidPasscode(v4) {
		return nil, &models.ValidationError{Field: "v4", Message: "Missing or invalid passcode. Provide last 4 digits as v4 query parameter."}
	}

	col := database.DB.Collection(cardsCollection)

	var card models.Card
	err := col.FindOne(ctx, bson.M{"unique_id": uniqueID}).Decode(&card)
	if err == mongo.ErrNoDocuments {
		return nil, &models.NotFoundError{Message: "Card not found or passcode incorrect"}
	}
	if err != nil {
		return nil, err
	}

	ok, err := utils.VerifyPasscode(strings.TrimSpace(v4), card.VehicleLast4Hash)
	if err != nil || !ok {
		return nil, &models.NotFoundError{Message: "Card not found or passcode incorrect"}
	}
	return &card, nil
}

// ListCards returns a page of cards, newest first, with the total count.
func ListCards(ctx context.Context, page, limit int) ([]models.Card, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	col := database.DB.Collection(cardsCollection)

	total, err := col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))

	cur, err := col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	cards := []models.Card{}
	if err := cur.All(ctx, &cards); err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

// BulkCreateResult describes one record of a bulk import.
type BulkCreateResult struct {
	ID       string `json:"id,omitempty"`
	FullName string `json:"fullName"`
	Error    string `json:"error,omitempty"`
}

// BulkCreateCards inserts each record independently (unordered): invalid
// rows are reported per-record and do not stop the rest of the batch.
func BulkCreateCards(ctx context.Context, inputs []CreateCardInput) (created int, results []BulkCreateResult) {
	results = make([]BulkCreateResult, 0, len(inputs))
	for _, in := range inputs {
		card, err := CreateCard(ctx, in)
		if err != nil {
			log.Printf("bulk create: skipping record for %q: %v", in.FullName, err)
			results = append(results, BulkCreateResult{FullName: in.FullName, Error: err.Error()})
			continue
		}
		created++
		results = append(results, BulkCreateResult{ID: card.UniqueID, FullName: card.FullName})
	}
	return created, results
}

func orEmpty(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
