package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jobhub/identity/internal/core/domain"
	"github.com/jobhub/identity/internal/core/ports"
)

type companyDoc struct {
	CompanyName        string `bson:"company_name"`
	CompanyAddress     string `bson:"company_address"`
	Website            string `bson:"website,omitempty"`
	ContactPerson      string `bson:"contact_person"`
	ContactEmail       string `bson:"contact_email"`
	ContactPhone       string `bson:"contact_phone"`
	CompanyDescription string `bson:"company_description,omitempty"`
	Industry           string `bson:"industry,omitempty"`
	CompanySize        string `bson:"company_size,omitempty"`
	ApplicantNotes     string `bson:"applicant_notes,omitempty"`
}

type registrationDoc struct {
	ID          string     `bson:"_id"`
	UserID      string     `bson:"user_id"`
	Company     companyDoc `bson:"company"`
	Status      string     `bson:"status"`
	Notes       string     `bson:"notes,omitempty"`
	ProcessedBy string     `bson:"processed_by,omitempty"`
	ProcessedAt *time.Time `bson:"processed_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at"`
}

func toRegistrationDoc(r *domain.EmployerRegistration) registrationDoc {
	c := r.Company
	return registrationDoc{
		ID:     r.ID,
		UserID: r.UserID,
		Company: companyDoc{
			CompanyName:        c.CompanyName,
			CompanyAddress:     c.CompanyAddress,
			Website:            c.Website,
			ContactPerson:      c.ContactPerson,
			ContactEmail:       c.ContactEmail,
			ContactPhone:       c.ContactPhone,
			CompanyDescription: c.CompanyDescription,
			Industry:           c.Industry,
			CompanySize:        c.CompanySize,
			ApplicantNotes:     c.ApplicantNotes,
		},
		Status:      string(r.Status),
		Notes:       r.Notes,
		ProcessedBy: r.ProcessedBy,
		ProcessedAt: r.ProcessedAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func (d *registrationDoc) toDomain() domain.EmployerRegistration {
	c := d.Company
	r := domain.EmployerRegistration{
		ID:     d.ID,
		UserID: d.UserID,
		Company: domain.CompanyInfo{
			CompanyName:        c.CompanyName,
			CompanyAddress:     c.CompanyAddress,
			Website:            c.Website,
			ContactPerson:      c.ContactPerson,
			ContactEmail:       c.ContactEmail,
			ContactPhone:       c.ContactPhone,
			CompanyDescription: c.CompanyDescription,
			Industry:           c.Industry,
			CompanySize:        c.CompanySize,
			ApplicantNotes:     c.ApplicantNotes,
		},
		Status:      domain.RegistrationStatus(d.Status),
		Notes:       d.Notes,
		ProcessedBy: d.ProcessedBy,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
	if d.ProcessedAt != nil {
		t := d.ProcessedAt.UTC()
		r.ProcessedAt = &t
	}
	return r
}

func (s *Store) CreateRegistration(ctx context.Context, r *domain.EmployerRegistration) (*domain.EmployerRegistration, error) {
	ctx, cancel := timeout(ctx)
	defer cancel()

	doc := toRegistrationDoc(r)
	doc.ID = newID()
	if _, err := s.registrations.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrRegistrationPending
		}
		return nil, fmt.Errorf("insert registration: %w", err)
	}
	out := doc.toDomain()
	return &out, nil
}

func (s *Store) FindRegistrationByID(ctx context.Context, id string) (*domain.EmployerRegistration, error) {
	ctx, cancel := timeout(ctx)
	defer cancel()

	var doc registrationDoc
	if err := s.registrations.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("find registration: %w", err)
	}
	out := doc.toDomain()
	return &out, nil
}

func (s *Store) ListRegistrations(ctx context.Context, f ports.RegistrationFilter) ([]domain.EmployerRegistration, error) {
	ctx, cancel := timeout(ctx)
	defer cancel()

	filter := bson.M{}
	if f.UserID != "" {
		filter["user_id"] = f.UserID
	}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}

	cur, err := s.registrations.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find registrations: %w", err)
	}
	var docs []registrationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode registrations: %w", err)
	}
	out := make([]domain.EmployerRegistration, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

// DecideRegistration is a compare-and-set on status=PENDING, so two admins
// deciding the same request cannot both win.
func (s *Store) DecideRegistration(ctx context.Context, r *domain.EmployerRegistration) error {
	ctx, cancel := timeout(ctx)
	defer cancel()

	res, err := s.registrations.UpdateOne(ctx,
		bson.M{"_id": r.ID, "status": string(domain.RegistrationPending)},
		bson.M{"$set": bson.M{
			"status":       string(r.Status),
			"notes":        r.Notes,
			"processed_by": r.ProcessedBy,
			"processed_at": r.ProcessedAt,
			"updated_at":   r.UpdatedAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("decide registration: %w", err)
	}
	if res.MatchedCount == 1 {
		return nil
	}

	n, err := s.registrations.CountDocuments(ctx, bson.M{"_id": r.ID})
	if err != nil {
		return fmt.Errorf("decide registration: %w", err)
	}
	if n == 0 {
		return domain.ErrRegistrationNotFound
	}
	return domain.ErrRegistrationProcessed
}
