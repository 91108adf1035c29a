package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/agenceeditorial/auditengine/internal/errs"
	"github.com/agenceeditorial/auditengine/internal/models"
)

// EditorialStore persists the entities the audit pipeline produces for a
// single domain: site profiles, competitor relationships, and scraped
// articles. Grounded on ExecutionStore's NamedExecContext idiom.
type EditorialStore struct {
	db *sqlx.DB
}

// NewEditorialStore constructs an EditorialStore.
func NewEditorialStore(db *sqlx.DB) *EditorialStore {
	return &EditorialStore{db: db}
}

// CreateSiteProfile inserts a SiteProfile (id is DB-assigned).
func (s *EditorialStore) CreateSiteProfile(ctx context.Context, p *models.SiteProfile) error {
	if p.AnalysisDate.IsZero() {
		p.AnalysisDate = time.Now().UTC()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	p.IsValid = true
	const q = `INSERT INTO site_profiles
		(domain, analysis_date, language_level, editorial_tone, target_audience,
		 activity_domains, content_structure, keywords, style_features,
		 pages_analyzed, llm_models_used, is_valid, created_at)
		VALUES (:domain, :analysis_date, :language_level, :editorial_tone, :target_audience,
		 :activity_domains, :content_structure, :keywords, :style_features,
		 :pages_analyzed, :llm_models_used, :is_valid, :created_at)
		RETURNING id`
	rows, err := s.db.NamedQueryContext(ctx, q, p)
	if err != nil {
		return errs.New(errs.KindFatal, "create site profile", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&p.ID); err != nil {
			return errs.New(errs.KindFatal, "create site profile: scan id", err)
		}
	}
	return nil
}

// LatestSiteProfile returns the most recent profile for domain, or nil if
// none has been analyzed yet.
func (s *EditorialStore) LatestSiteProfile(ctx context.Context, domain string) (*models.SiteProfile, error) {
	var p models.SiteProfile
	const q = `SELECT * FROM site_profiles WHERE domain = $1 ORDER BY analysis_date DESC LIMIT 1`
	if err := s.db.GetContext(ctx, &p, q, domain); err != nil {
		return nil, nil
	}
	return &p, nil
}

// SiteProfileHistory returns every profile recorded for domain, newest first.
func (s *EditorialStore) SiteProfileHistory(ctx context.Context, domain string) ([]models.SiteProfile, error) {
	var ps []models.SiteProfile
	const q = `SELECT * FROM site_profiles WHERE domain = $1 ORDER BY analysis_date DESC`
	if err := s.db.SelectContext(ctx, &ps, q, domain); err != nil {
		return nil, errs.New(errs.KindFatal, "site profile history", err)
	}
	return ps, nil
}

// UpsertCompetitorDomain inserts a competitor relationship, or updates
// validation fields if (client_domain, domain) already exists.
func (s *EditorialStore) UpsertCompetitorDomain(ctx context.Context, c *models.CompetitorDomain) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	c.IsValid = true
	const q = `INSERT INTO competitor_domains
		(client_domain, domain, excluded, validated, manual, validation_date, is_valid, created_at)
		VALUES (:client_domain, :domain, :excluded, :validated, :manual, :validation_date, :is_valid, :created_at)
		ON CONFLICT (client_domain, domain) DO UPDATE SET
			excluded = EXCLUDED.excluded,
			validated = EXCLUDED.validated,
			manual = EXCLUDED.manual,
			validation_date = EXCLUDED.validation_date
		RETURNING id`
	rows, err := s.db.NamedQueryContext(ctx, q, c)
	if err != nil {
		return errs.New(errs.KindFatal, "upsert competitor domain", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&c.ID); err != nil {
			return errs.New(errs.KindFatal, "upsert competitor domain: scan id", err)
		}
	}
	return nil
}

// ListCompetitors returns the non-excluded competitor relationships for
// clientDomain.
func (s *EditorialStore) ListCompetitors(ctx context.Context, clientDomain string) ([]models.CompetitorDomain, error) {
	var cs []models.CompetitorDomain
	const q = `SELECT * FROM competitor_domains WHERE client_domain = $1 AND excluded = FALSE ORDER BY created_at ASC`
	if err := s.db.SelectContext(ctx, &cs, q, clientDomain); err != nil {
		return nil, errs.New(errs.KindFatal, "list competitors", err)
	}
	return cs, nil
}

// GetCompetitor fetches a single client/competitor relationship.
func (s *EditorialStore) GetCompetitor(ctx context.Context, clientDomain, domain string) (*models.CompetitorDomain, error) {
	var c models.CompetitorDomain
	const q = `SELECT * FROM competitor_domains WHERE client_domain = $1 AND domain = $2`
	if err := s.db.GetContext(ctx, &c, q, clientDomain, domain); err != nil {
		return nil, errs.New(errs.KindDataShape, "competitor not found", err)
	}
	return &c, nil
}

// CreateArticle inserts a scraped article, deduplicated on (domain, url_hash).
// A conflicting insert is treated as already-present, not an error.
func (s *EditorialStore) CreateArticle(ctx context.Context, a *models.Article) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	a.IsValid = true
	const q = `INSERT INTO articles
		(site_profile_id, is_client, domain, url, url_hash, title, content_text,
		 author, published_date, keywords, topic_id, qdrant_point_id, is_valid, created_at)
		VALUES (:site_profile_id, :is_client, :domain, :url, :url_hash, :title, :content_text,
		 :author, :published_date, :keywords, :topic_id, :qdrant_point_id, :is_valid, :created_at)
		ON CONFLICT (domain, url_hash) DO NOTHING
		RETURNING id`
	rows, err := s.db.NamedQueryContext(ctx, q, a)
	if err != nil {
		return errs.New(errs.KindFatal, "create article", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&a.ID); err != nil {
			return errs.New(errs.KindFatal, "create article: scan id", err)
		}
	}
	return nil
}

// ArticlesByDomain returns every article recorded for domain, newest first.
func (s *EditorialStore) ArticlesByDomain(ctx context.Context, domain string) ([]models.Article, error) {
	var as []models.Article
	const q = `SELECT * FROM articles WHERE domain = $1 ORDER BY published_date DESC NULLS LAST`
	if err := s.db.SelectContext(ctx, &as, q, domain); err != nil {
		return nil, errs.New(errs.KindFatal, "articles by domain", err)
	}
	return as, nil
}

// CountArticlesByDomain returns how many articles are recorded for domain,
// used by AuditOrchestrator's client/competitor sufficiency checks without
// pulling full rows.
func (s *EditorialStore) CountArticlesByDomain(ctx context.Context, domain string) (int, error) {
	var n int
	const q = `SELECT COUNT(*) FROM articles WHERE domain = $1`
	if err := s.db.GetContext(ctx, &n, q, domain); err != nil {
		return 0, errs.New(errs.KindFatal, "count articles by domain", err)
	}
	return n, nil
}

// CountArticlesByDomains sums CountArticlesByDomain across domains in a
// single round trip, used for the competitor-article sufficiency check.
func (s *EditorialStore) CountArticlesByDomains(ctx context.Context, domains []string) (int, error) {
	if len(domains) == 0 {
		return 0, nil
	}
	var n int
	const q = `SELECT COUNT(*) FROM articles WHERE domain = ANY($1)`
	if err := s.db.GetContext(ctx, &n, q, pq.Array(domains)); err != nil {
		return 0, errs.New(errs.KindFatal, "count articles by domains", err)
	}
	return n, nil
}

// ArticlesByTopic returns every article assigned to topicID across domains,
// used by the gap analyzer's coverage comparison.
func (s *EditorialStore) ArticlesByTopic(ctx context.Context, topicID int) ([]models.Article, error) {
	var as []models.Article
	const q = `SELECT * FROM articles WHERE topic_id = $1 ORDER BY published_date DESC NULLS LAST`
	if err := s.db.SelectContext(ctx, &as, q, topicID); err != nil {
		return nil, errs.New(errs.KindFatal, "articles by topic", err)
	}
	return as, nil
}
