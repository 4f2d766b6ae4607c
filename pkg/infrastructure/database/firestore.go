package database

import (
	"context"

	"cloud.google.com/go/firestore"

	shared "github.com/ripixel/fitglue-leaderboard/pkg"
	"github.com/ripixel/fitglue-leaderboard/pkg/types"
)

// FirestoreAdapter records function executions in Firestore.
type FirestoreAdapter struct {
	Client *firestore.Client
}

func NewFirestoreAdapter(client *firestore.Client) *FirestoreAdapter {
	return &FirestoreAdapter{Client: client}
}

func (a *FirestoreAdapter) executions() *firestore.CollectionRef {
	return a.Client.Collection(shared.CollectionExecutions)
}

func (a *FirestoreAdapter) SetExecution(ctx context.Context, record *types.ExecutionRecord) error {
	_, err := a.executions().Doc(record.ExecutionID).Set(ctx, record)
	return err
}

func (a *FirestoreAdapter) UpdateExecution(ctx context.Context, id string, data map[string]interface{}) error {
	_, err := a.executions().Doc(id).Set(ctx, data, firestore.MergeAll)
	return err
}

// NoopDatabase discards execution records when execution logging is off.
type NoopDatabase struct{}

func (NoopDatabase) SetExecution(ctx context.Context, record *types.ExecutionRecord) error {
	return nil
}

func (NoopDatabase) UpdateExecution(ctx context.Context, id string, data map[string]interface{}) error {
	return nil
}
