package profilestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/isstabb/InstaMod/automod/counters"
	"github.com/isstabb/InstaMod/automod/profile"
)

// profileRow is the database shape of a user analysis record. The eight
// counters are stored in the token-pair text format so rows stay readable and
// the schema stays flat.
type profileRow struct {
	Community        string    `gorm:"primaryKey"`
	Username         string    `gorm:"primaryKey"`
	AccountCreatedAt time.Time
	AnalyzedAt       time.Time `gorm:"index"`

	LatestCommentID      string
	LatestPostID         string
	LatestStaleCommentID string
	LatestStalePostID    string

	TotalCommentKarma int64
	TotalPostKarma    int64
	TotalKarma        int64

	CommentKarma string
	PostKarma    string
	PosComments  string
	NegComments  string
	PosPosts     string
	NegPosts     string
	PosQuality   string
	NegQuality   string
}

func (profileRow) TableName() string {
	return "user_profiles"
}

type GormProfileStore struct {
	db *gorm.DB
}

func NewGormProfileStore(db *gorm.DB) (*GormProfileStore, error) {
	if err := db.AutoMigrate(&profileRow{}); err != nil {
		return nil, fmt.Errorf("migrating user_profiles: %w", err)
	}
	return &GormProfileStore{db: db}, nil
}

func (s *GormProfileStore) Get(ctx context.Context, community, username string) (*profile.Profile, error) {
	var row profileRow
	err := s.db.WithContext(ctx).First(&row, "community = ? AND username = ?", community, username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return rowToProfile(&row)
}

func (s *GormProfileStore) Put(ctx context.Context, p *profile.Profile) error {
	row := profileToRow(p)
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(row).Error
}

func (s *GormProfileStore) Delete(ctx context.Context, community, username string) error {
	return s.db.WithContext(ctx).Delete(&profileRow{}, "community = ? AND username = ?", community, username).Error
}

func (s *GormProfileStore) Oldest(ctx context.Context, community string) (string, error) {
	var row profileRow
	err := s.db.WithContext(ctx).Where("community = ?", community).Order("analyzed_at asc").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	} else if err != nil {
		return "", err
	}
	return row.Username, nil
}

func (s *GormProfileStore) ListAnalyzedBefore(ctx context.Context, community string, cutoff time.Time) ([]string, error) {
	var usernames []string
	err := s.db.WithContext(ctx).Model(&profileRow{}).
		Where("community = ? AND analyzed_at < ?", community, cutoff).
		Order("username asc").
		Pluck("username", &usernames).Error
	if err != nil {
		return nil, err
	}
	return usernames, nil
}

func profileToRow(p *profile.Profile) *profileRow {
	return &profileRow{
		Community:            p.Community,
		Username:             p.Username,
		AccountCreatedAt:     p.CreatedAt,
		AnalyzedAt:           p.AnalyzedAt,
		LatestCommentID:      p.LatestCommentID,
		LatestPostID:         p.LatestPostID,
		LatestStaleCommentID: p.LatestStaleCommentID,
		LatestStalePostID:    p.LatestStalePostID,
		TotalCommentKarma:    p.TotalCommentKarma,
		TotalPostKarma:       p.TotalPostKarma,
		TotalKarma:           p.TotalKarma,
		CommentKarma:         counters.FormatTokens(p.Counters.CommentKarma),
		PostKarma:            counters.FormatTokens(p.Counters.PostKarma),
		PosComments:          counters.FormatTokens(p.Counters.PosComments),
		NegComments:          counters.FormatTokens(p.Counters.NegComments),
		PosPosts:             counters.FormatTokens(p.Counters.PosPosts),
		NegPosts:             counters.FormatTokens(p.Counters.NegPosts),
		PosQuality:           counters.FormatTokens(p.Counters.PosQuality),
		NegQuality:           counters.FormatTokens(p.Counters.NegQuality),
	}
}

func rowToProfile(row *profileRow) (*profile.Profile, error) {
	p := &profile.Profile{
		Community:            row.Community,
		Username:             row.Username,
		CreatedAt:            row.AccountCreatedAt,
		AnalyzedAt:           row.AnalyzedAt,
		LatestCommentID:      row.LatestCommentID,
		LatestPostID:         row.LatestPostID,
		LatestStaleCommentID: row.LatestStaleCommentID,
		LatestStalePostID:    row.LatestStalePostID,
		TotalCommentKarma:    row.TotalCommentKarma,
		TotalPostKarma:       row.TotalPostKarma,
		TotalKarma:           row.TotalKarma,
	}
	fields := []struct {
		raw  string
		dest *counters.CategoryCounter
	}{
		{row.CommentKarma, &p.Counters.CommentKarma},
		{row.PostKarma, &p.Counters.PostKarma},
		{row.PosComments, &p.Counters.PosComments},
		{row.NegComments, &p.Counters.NegComments},
		{row.PosPosts, &p.Counters.PosPosts},
		{row.NegPosts, &p.Counters.NegPosts},
		{row.PosQuality, &p.Counters.PosQuality},
		{row.NegQuality, &p.Counters.NegQuality},
	}
	for _, f := range fields {
		c, err := counters.ParseTokens(f.raw)
		if err != nil {
			return nil, fmt.Errorf("record for %s: %w", row.Username, err)
		}
		*f.dest = c
	}
	return p, nil
}
