package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"github.com/aidattendance/portal/internal/core/domain"
	"github.com/aidattendance/portal/internal/core/ports"
)

const usersCollection = "portal_users"

// Directory is the MongoDB user directory. It checks passwords, resolves
// identities and stores profile edits. Emails without a stored role resolve
// through the fallback resolver.
type Directory struct {
	coll     *mongo.Collection
	fallback ports.IdentityResolver
}

var (
	_ ports.CredentialStore  = (*Directory)(nil)
	_ ports.IdentityResolver = (*Directory)(nil)
	_ ports.ProfileStore     = (*Directory)(nil)
)

func NewDirectory(db *mongo.Database, fallback ports.IdentityResolver) *Directory {
	return &Directory{coll: db.Collection(usersCollection), fallback: fallback}
}

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash,omitempty"`
	FirstName    string             `bson:"first_name,omitempty"`
	LastName     string             `bson:"last_name,omitempty"`
	Role         string             `bson:"role,omitempty"`
	Phone        string             `bson:"phone,omitempty"`
	CompanyID    string             `bson:"company_id,omitempty"`
	CompanyName  string             `bson:"company_name,omitempty"`
	IsSuperAdmin bool               `bson:"is_super_admin,omitempty"`
	CreatedAt    int64              `bson:"created_at"`
	UpdatedAt    int64              `bson:"updated_at"`
}

func (d *Directory) find(ctx context.Context, email string) (*userDoc, error) {
	var doc userDoc
	if err := d.coll.FindOne(ctx, bson.M{"email": email}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &doc, nil
}

func (d *Directory) Verify(ctx context.Context, email, password string) error {
	doc, err := d.find(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.ErrInvalidCredentials
	}
	if err != nil {
		return err
	}
	if doc.PasswordHash == "" {
		return domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(doc.PasswordHash), []byte(password)) != nil {
		return domain.ErrInvalidCredentials
	}
	return nil
}

func (d *Directory) SetPassword(ctx context.Context, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC().Unix()
	update := bson.M{
		"$set":         bson.M{"password_hash": string(hash), "updated_at": now},
		"$setOnInsert": bson.M{"email": email, "created_at": now},
	}
	if _, err := d.coll.UpdateOne(ctx, bson.M{"email": email}, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	return nil
}

func (d *Directory) Resolve(ctx context.Context, email string) (domain.Identity, error) {
	doc, err := d.find(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return domain.Identity{}, err
	}

	var fallback domain.Identity
	if d.fallback != nil {
		fallback, err = d.fallback.Resolve(ctx, email)
		if err != nil {
			return domain.Identity{}, err
		}
	}
	if doc == nil {
		if d.fallback == nil {
			return domain.Identity{}, domain.ErrUserNotFound
		}
		return fallback, nil
	}
	return doc.toIdentity(fallback), nil
}

// toIdentity overlays the stored fields on base. The document id always wins
// so every stored user keeps a distinct identifier. A missing or unknown role
// keeps the role of base.
func (u userDoc) toIdentity(base domain.Identity) domain.Identity {
	id := base
	id.Email = u.Email
	if !u.ID.IsZero() {
		id.ID = u.ID.Hex()
	}
	if role := domain.Role(u.Role); role.Valid() {
		id.Role = role
	}
	if u.FirstName != "" || u.LastName != "" {
		id.FirstName = u.FirstName
		id.LastName = u.LastName
	}
	if u.Phone != "" {
		id.Phone = u.Phone
	}
	if u.CompanyID != "" {
		id.CompanyID = u.CompanyID
	}
	if u.CompanyName != "" {
		id.CompanyName = u.CompanyName
	}
	id.IsSuperAdmin = id.IsSuperAdmin || u.IsSuperAdmin
	if !id.Role.Valid() {
		id.Role = domain.RoleUser
	}
	return id
}

func (d *Directory) UpdateProfile(ctx context.Context, email string, u domain.ProfileUpdate) error {
	now := time.Now().UTC().Unix()
	update := bson.M{
		"$set": bson.M{
			"first_name": u.FirstName,
			"last_name":  u.LastName,
			"phone":      u.Phone,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{"email": email, "created_at": now},
	}
	if _, err := d.coll.UpdateOne(ctx, bson.M{"email": email}, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// EnsureIndexes creates the unique email index.
func (d *Directory) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := d.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
