package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-openapi/strfmt"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/les-detritivores/clic-compost/internal/entity"
	"github.com/les-detritivores/clic-compost/internal/usecase"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const subColumns = "id, firstname, lastname, company, email, phone, location, meals, service, started_at, customer, card, iban, created_at"

type SubRepository struct {
	pool *pgxpool.Pool
}

func NewSubRepository(pool *pgxpool.Pool) *SubRepository {
	return &SubRepository{
		pool: pool,
	}
}

func (r *SubRepository) SaveSub(ctx context.Context, sub *entity.Subscription) (*entity.Subscription, error) {
	if sub == nil {
		return nil, fmt.Errorf("save sub: %w", usecase.ErrInvalidSubscription)
	}

	query, args, err := psql.Insert("subscriptions").
		Columns("firstname", "lastname", "company", "email", "phone", "location", "meals", "service", "started_at", "customer", "card", "iban").
		Values(sub.Firstname, sub.Lastname, sub.Company, sub.Email.String(), sub.Phone, sub.Location, sub.Meals, sub.Service, sub.StartedAt, sub.Customer, sub.Card, sub.Iban).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("save sub: build query: %w", err)
	}

	created := *sub
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&created.ID, &created.CreatedAt); err != nil {
		return nil, fmt.Errorf("save sub: %w", err)
	}
	return &created, nil
}

func (r *SubRepository) UpdateSub(ctx context.Context, sub *entity.Subscription) error {
	if sub == nil {
		return fmt.Errorf("update sub: %w", usecase.ErrInvalidSubscription)
	}

	query, args, err := psql.Update("subscriptions").
		Set("firstname", sub.Firstname).
		Set("lastname", sub.Lastname).
		Set("company", sub.Company).
		Set("email", sub.Email.String()).
		Set("phone", sub.Phone).
		Set("location", sub.Location).
		Set("meals", sub.Meals).
		Set("service", sub.Service).
		Set("started_at", sub.StartedAt).
		Set("customer", sub.Customer).
		Set("card", sub.Card).
		Set("iban", sub.Iban).
		Where(sq.Eq{"id": sub.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("update sub: build query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update sub: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return usecase.ErrSubscriptionNotFound
	}
	return nil
}

func (r *SubRepository) DeleteSub(ctx context.Context, id int64) error {
	query, args, err := psql.Delete("subscriptions").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("delete sub: build query: %w", err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete sub: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return usecase.ErrSubscriptionNotFound
	}
	return nil
}

func (r *SubRepository) GetSubByID(ctx context.Context, id int64) (*entity.Subscription, error) {
	query, args, err := psql.Select(subColumns).
		From("subscriptions").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("get sub: build query: %w", err)
	}

	sub, err := scanSub(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, usecase.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("get sub by id=%d: %w", id, err)
	}
	return sub, nil
}

func (r *SubRepository) ListSubs(ctx context.Context) ([]*entity.Subscription, error) {
	query, args, err := psql.Select(subColumns).
		From("subscriptions").
		OrderBy("id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("list subs: build query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list subs: %w", err)
	}
	defer rows.Close()

	var out []*entity.Subscription
	for rows.Next() {
		sub, err := scanSub(rows)
		if err != nil {
			return nil, fmt.Errorf("list subs: %w", err)
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list subs: %w", err)
	}
	return out, nil
}

func scanSub(row pgx.Row) (*entity.Subscription, error) {
	var (
		sub       entity.Subscription
		email     string
		startedAt time.Time
	)
	if err := row.Scan(
		&sub.ID,
		&sub.Firstname,
		&sub.Lastname,
		&sub.Company,
		&email,
		&sub.Phone,
		&sub.Location,
		&sub.Meals,
		&sub.Service,
		&startedAt,
		&sub.Customer,
		&sub.Card,
		&sub.Iban,
		&sub.CreatedAt,
	); err != nil {
		return nil, err
	}
	sub.Email = strfmt.Email(email)
	sub.StartedAt = time.Date(startedAt.Year(), startedAt.Month(), startedAt.Day(), 0, 0, 0, 0, time.UTC)
	return &sub, nil
}
