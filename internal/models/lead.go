package models

import "time"

// Lead identifies the person who ran an analysis. At most one lead exists
// per normalized e-mail; UserID is set once a matching account registers.
type Lead struct {
	ID           string    `bson:"_id" json:"id"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email"`
	BusinessName *string   `bson:"business_name,omitempty" json:"business_name,omitempty"`
	UserID       *string   `bson:"user_id" json:"user_id,omitempty"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

// Ref returns the lead reference embedded in analysis listings.
func (l *Lead) Ref() *LeadRef {
	return &LeadRef{ID: l.ID, Name: l.Name, Email: l.Email, UserID: l.UserID}
}
