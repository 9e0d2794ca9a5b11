package audit

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/anvaya/identity-service/internal/core/ports"
)

const auditCollection = "auth_audit"

// MongoSink persists audit events to a MongoDB collection.
type MongoSink struct {
	coll *mongo.Collection
}

func NewMongoSink(db *mongo.Database) *MongoSink {
	return &MongoSink{coll: db.Collection(auditCollection)}
}

type auditDocument struct {
	Action     string `bson:"action"`
	IdentityID string `bson:"identity_id,omitempty"`
	Email      string `bson:"email,omitempty"`
	At         int64  `bson:"at"`
}

func (s *MongoSink) Write(ctx context.Context, event ports.AuditEvent) error {
	doc := auditDocument{
		Action:     event.Action,
		IdentityID: event.IdentityID,
		Email:      event.Email,
		At:         event.At.Unix(),
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}
