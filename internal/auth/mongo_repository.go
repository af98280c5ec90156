package auth

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig contains connection settings for MongoDB player repository.
type MongoConfig struct {
	URI        string // e.g. mongodb://localhost:27017
	Database   string // e.g. tilematch
	Collection string // e.g. players
	Counters   string // e.g. counters (for auto-increment)
}

// MongoPlayerRepo implements PlayerRepository on MongoDB backend.
type MongoPlayerRepo struct {
	client      *mongo.Client
	collection  *mongo.Collection
	counterColl *mongo.Collection
	ctxTimeout  time.Duration
}

type mongoPlayerDoc struct {
	PlayerID         uint64    `bson:"player_id"`
	Username         string    `bson:"username"`
	PasswordHash     string    `bson:"password_hash"`
	IsAdmin          bool      `bson:"is_admin"`
	MaxUnlockedLevel int       `bson:"max_unlocked_level"`
	CurrentLevel     int       `bson:"current_level"`
	CreatedAt        time.Time `bson:"created_at"`
	LastLogin        time.Time `bson:"last_login"`
}

func (d *mongoPlayerDoc) toPlayer() *Player {
	return &Player{
		ID:               d.PlayerID,
		Username:         d.Username,
		PasswordHash:     d.PasswordHash,
		IsAdmin:          d.IsAdmin,
		MaxUnlockedLevel: d.MaxUnlockedLevel,
		CurrentLevel:     d.CurrentLevel,
		CreatedAt:        d.CreatedAt,
		LastLogin:        d.LastLogin,
	}
}

// NewMongoPlayerRepo establishes connection and returns repository.
func NewMongoPlayerRepo(cfg MongoConfig) (*MongoPlayerRepo, error) {
	if cfg.URI == "" {
		cfg.URI = "mongodb://localhost:27017"
	}
	if cfg.Database == "" {
		cfg.Database = "tilematch"
	}
	if cfg.Collection == "" {
		cfg.Collection = "players"
	}
	if cfg.Counters == "" {
		cfg.Counters = "counters"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	// ping
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	db := client.Database(cfg.Database)
	repo := &MongoPlayerRepo{
		client:      client,
		collection:  db.Collection(cfg.Collection),
		counterColl: db.Collection(cfg.Counters),
		ctxTimeout:  5 * time.Second,
	}

	// Ensure indexes
	if err := repo.ensureIndexes(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (m *MongoPlayerRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), m.ctxTimeout)
	defer cancel()
	usernameIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("username_unique"),
	}
	playerIDIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "player_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("playerid_unique"),
	}
	_, err := m.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{usernameIdx, playerIDIdx})
	return err
}

// GetPlayerByUsername implements PlayerRepository.
func (m *MongoPlayerRepo) GetPlayerByUsername(username string) (*Player, error) {
	ctx, cancel := context.WithTimeout(context.Background(), m.ctxTimeout)
	defer cancel()
	lower := strings.ToLower(username)
	var doc mongoPlayerDoc
	err := m.collection.FindOne(ctx, bson.M{"username": lower}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toPlayer(), nil
}

// GetPlayerByID implements PlayerRepository.
func (m *MongoPlayerRepo) GetPlayerByID(id uint64) (*Player, error) {
	ctx, cancel := context.WithTimeout(context.Background(), m.ctxTimeout)
	defer cancel()
	var doc mongoPlayerDoc
	err := m.collection.FindOne(ctx, bson.M{"player_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, ErrPlayerNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toPlayer(), nil
}

// CreatePlayer inserts a new document and returns created player.
func (m *MongoPlayerRepo) CreatePlayer(username string, passwordHash string, isAdmin bool) (*Player, error) {
	lower := strings.ToLower(username)

	// generate next id
	nextID, err := m.nextSequence("playerid")
	if err != nil {
		return nil, err
	}
	player := &Player{
		ID:               nextID,
		Username:         lower,
		PasswordHash:     passwordHash,
		IsAdmin:          isAdmin,
		MaxUnlockedLevel: 1,
		CurrentLevel:     1,
		CreatedAt:        time.Now(),
		LastLogin:        time.Now(),
	}
	ctx, cancel := context.WithTimeout(context.Background(), m.ctxTimeout)
	defer cancel()
	_, err = m.collection.InsertOne(ctx, bson.M{
		"player_id":          player.ID,
		"username":           player.Username,
		"password_hash":      player.PasswordHash,
		"is_admin":           player.IsAdmin,
		"max_unlocked_level": player.MaxUnlockedLevel,
		"current_level":      player.CurrentLevel,
		"created_at":         player.CreatedAt,
		"last_login":         player.LastLogin,
	})
	if mongo.IsDuplicateKeyError(err) {
		return nil, ErrPlayerExists
	}
	if err != nil {
		return nil, err
	}
	return player, nil
}

// ValidateCredentials implements PlayerRepository.
func (m *MongoPlayerRepo) ValidateCredentials(username, password string) (*Player, error) {
	player, err := m.GetPlayerByUsername(username)
	if err != nil {
		return nil, err
	}
	if !CheckPassword(player.PasswordHash, password) {
		return nil, ErrPlayerNotFound
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.ctxTimeout)
	defer cancel()
	_, _ = m.collection.UpdateOne(ctx,
		bson.M{"player_id": player.ID},
		bson.M{"$set": bson.M{"last_login": time.Now()}},
	)
	return player, nil
}

// UpdateProgress implements PlayerRepository.
func (m *MongoPlayerRepo) UpdateProgress(id uint64, maxUnlockedLevel, currentLevel int) error {
	ctx, cancel := context.WithTimeout(context.Background(), m.ctxTimeout)
	defer cancel()
	res, err := m.collection.UpdateOne(ctx,
		bson.M{"player_id": id},
		bson.M{"$set": bson.M{
			"max_unlocked_level": maxUnlockedLevel,
			"current_level":      currentLevel,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrPlayerNotFound
	}
	return nil
}

// nextSequence atomically increments a counter and returns new value.
func (m *MongoPlayerRepo) nextSequence(name string) (uint64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), m.ctxTimeout)
	defer cancel()
	res := m.counterColl.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := res.Decode(&doc)
	if err != nil {
		return 0, err
	}
	return uint64(doc.Seq), nil
}

// Close terminates connection.
func (m *MongoPlayerRepo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
