package database

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var Client *mongo.Client
var DB *mongo.Database

func Connect(mongoURI string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(mongoURI)
	clientOptions.SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return err
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return err
	}

	Client = client
	DB = client.Database(databaseName(mongoURI))

	log.Info().Msg("connected to MongoDB")
	return nil
}

// databaseName extracts the database from the connection string
// (mongodb://.../name?...), falling back to "ecocambio".
func databaseName(mongoURI string) string {
	dbName := "ecocambio"
	parts := strings.Split(mongoURI, "/")
	if len(parts) > 3 {
		dbPart := strings.Split(parts[len(parts)-1], "?")[0]
		if dbPart != "" {
			dbName = dbPart
		}
	}
	return dbName
}

func Disconnect() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return Client.Disconnect(ctx)
}

// EnsureIndexes provisions the indexes the handlers rely on. Called on
// startup from main after Mongo has connected.
func EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		"usuarios": {
			{
				Keys:    bson.D{{Key: "email", Value: 1}},
				Options: options.Index().SetName("idx_email_unique").SetUnique(true),
			},
		},
		"reportes": {
			{
				Keys:    bson.D{{Key: "ubicacion.coordinates", Value: "2dsphere"}},
				Options: options.Index().SetName("idx_ubicacion_2dsphere"),
			},
		},
		"notificaciones": {
			{
				Keys: bson.D{
					{Key: "usuarioDestino", Value: 1},
					{Key: "leido", Value: 1},
					{Key: "createdAt", Value: -1},
				},
				Options: options.Index().SetName("idx_destino_leido"),
			},
		},
		"mensajes": {
			{
				Keys: bson.D{
					{Key: "receptor", Value: 1},
					{Key: "createdAt", Value: -1},
				},
				Options: options.Index().SetName("idx_receptor_createdat"),
			},
		},
	}

	for collection, models := range indexes {
		for _, m := range models {
			if _, err := DB.Collection(collection).Indexes().CreateOne(ctx, m); err != nil {
				return err
			}
		}
	}
	return nil
}
