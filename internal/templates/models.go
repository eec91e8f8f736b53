// Package templates implements the template document domain: the persistent
// model, its repositories and the policy-enforcing service layer.
package templates

import "time"

// Template is a stored document whose content carries placeholder markup.
// Placeholders is derived from Content and recomputed on every content
// change so the two never drift apart. OwnerID is set at creation and never
// changes.
type Template struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	Name         string    `bson:"name" json:"name"`
	Content      string    `bson:"content" json:"content"`
	OwnerID      string    `bson:"ownerId" json:"ownerId"`
	Public       bool      `bson:"public" json:"public"`
	Placeholders []string  `bson:"placeholders" json:"placeholders"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}
