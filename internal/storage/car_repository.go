package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"carspec/internal/models"
)

// CarRepository handles car specification persistence. A car spans eight
// tables joined on car_id; writes touch all of them in one transaction.
type CarRepository struct {
	db *DB
}

// NewCarRepository creates a new car repository
func NewCarRepository(db *DB) *CarRepository {
	return &CarRepository{db: db}
}

// carDetailColumns aliases every joined column into the nested CarDetail
// shape sqlx scans into, keeping row-to-aggregate mapping declarative.
const carDetailColumns = `
	g.car_id,
	g.created_at,
	g.brand AS "general.brand",
	g.model AS "general.model",
	g.variant AS "general.variant",
	g.series AS "general.series",
	g.mfg_year AS "general.mfg_year",
	g.mileage AS "general.mileage",
	g.type AS "general.type",
	g.seat_capacity AS "general.seat_capacity",
	g.country_of_origin AS "general.country_of_origin",
	g.price AS "general.price",
	t.transmission AS "transmission.transmission",
	e.engine_cc AS "engine.engine_cc",
	e.compression_ratio AS "engine.compression_ratio",
	e.peak_power AS "engine.peak_power",
	e.peak_torque AS "engine.peak_torque",
	e.engine_type AS "engine.engine_type",
	e.fuel_type AS "engine.fuel_type",
	d.length AS "dimension_and_weight.length",
	d.width AS "dimension_and_weight.width",
	d.height AS "dimension_and_weight.height",
	d.wheel_base AS "dimension_and_weight.wheel_base",
	d.kerb_weight AS "dimension_and_weight.kerb_weight",
	d.fuel_tank AS "dimension_and_weight.fuel_tank",
	b.front_brakes AS "brakes.front_brakes",
	b.rear_brakes AS "brakes.rear_brakes",
	su.front_suspension AS "suspension.front_suspension",
	su.rear_suspension AS "suspension.rear_suspension",
	st.steering AS "steering.steering",
	tw.front_tyres AS "tyres_and_wheels.front_tyres",
	tw.rear_tyres AS "tyres_and_wheels.rear_tyres",
	tw.front_rims AS "tyres_and_wheels.front_rims",
	tw.rear_rims AS "tyres_and_wheels.rear_rims"
`

const carDetailJoins = `
	FROM general g
	JOIN transmission t ON t.car_id = g.car_id
	JOIN engine e ON e.car_id = g.car_id
	JOIN dimension_and_weight d ON d.car_id = g.car_id
	JOIN brakes b ON b.car_id = g.car_id
	JOIN suspension su ON su.car_id = g.car_id
	JOIN steering st ON st.car_id = g.car_id
	JOIN tyres_and_wheels tw ON tw.car_id = g.car_id
`

// ListDetails returns all cars with their full specification
func (r *CarRepository) ListDetails(ctx context.Context) ([]models.CarDetail, error) {
	query := "SELECT " + carDetailColumns + carDetailJoins + " ORDER BY g.id"

	details := []models.CarDetail{}
	if err := r.db.conn.SelectContext(ctx, &details, query); err != nil {
		return nil, fmt.Errorf("failed to list car details: %w", err)
	}

	return details, nil
}

// GetDetailByID returns one car's full specification, or ErrCarNotFound
func (r *CarRepository) GetDetailByID(ctx context.Context, carID string) (*models.CarDetail, error) {
	query := "SELECT " + carDetailColumns + carDetailJoins + " WHERE g.car_id = $1"

	var detail models.CarDetail
	if err := r.db.conn.GetContext(ctx, &detail, query, carID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCarNotFound
		}
		return nil, fmt.Errorf("failed to get car detail: %w", err)
	}

	return &detail, nil
}

// Exists reports whether a car with the same headline attributes is already
// stored. The scraper uses it to skip relisted cars.
func (r *CarRepository) Exists(ctx context.Context, g models.General) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM general
			WHERE brand = $1 AND model = $2 AND variant = $3 AND series = $4 AND mfg_year = $5
		)
	`

	var exists bool
	err := r.db.conn.GetContext(ctx, &exists, query, g.Brand, g.Model, g.Variant, g.Series, g.MfgYear)
	if err != nil {
		return false, fmt.Errorf("failed to check car existence: %w", err)
	}

	return exists, nil
}

// Insert persists one scraped car across all eight tables in a single
// transaction keyed by the given car id.
func (r *CarRepository) Insert(ctx context.Context, carID string, in models.CarInput) error {
	tx, err := r.db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO general (car_id, brand, model, variant, series, mfg_year, mileage, type, seat_capacity, country_of_origin, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		carID, in.General.Brand, in.General.Model, in.General.Variant, in.General.Series,
		in.General.MfgYear, in.General.Mileage, in.General.Type, in.General.SeatCapacity,
		in.General.CountryOfOrigin, in.General.Price,
	)
	if err != nil {
		return fmt.Errorf("failed to insert general: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO transmission (car_id, transmission) VALUES ($1, $2)`,
		carID, in.Transmission.Transmission,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transmission: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO engine (car_id, engine_cc, compression_ratio, peak_power, peak_torque, engine_type, fuel_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		carID, in.Engine.EngineCC, in.Engine.CompressionRatio, in.Engine.PeakPower,
		in.Engine.PeakTorque, in.Engine.EngineType, in.Engine.FuelType,
	)
	if err != nil {
		return fmt.Errorf("failed to insert engine: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO dimension_and_weight (car_id, length, width, height, wheel_base, kerb_weight, fuel_tank)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		carID, in.DimensionAndWeight.Length, in.DimensionAndWeight.Width, in.DimensionAndWeight.Height,
		in.DimensionAndWeight.WheelBase, in.DimensionAndWeight.KerbWeight, in.DimensionAndWeight.FuelTank,
	)
	if err != nil {
		return fmt.Errorf("failed to insert dimension_and_weight: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO brakes (car_id, front_brakes, rear_brakes) VALUES ($1, $2, $3)`,
		carID, in.Brakes.FrontBrakes, in.Brakes.RearBrakes,
	)
	if err != nil {
		return fmt.Errorf("failed to insert brakes: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO suspension (car_id, front_suspension, rear_suspension) VALUES ($1, $2, $3)`,
		carID, in.Suspension.FrontSuspension, in.Suspension.RearSuspension,
	)
	if err != nil {
		return fmt.Errorf("failed to insert suspension: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO steering (car_id, steering) VALUES ($1, $2)`,
		carID, in.Steering.Steering,
	)
	if err != nil {
		return fmt.Errorf("failed to insert steering: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tyres_and_wheels (car_id, front_tyres, rear_tyres, front_rims, rear_rims)
		VALUES ($1, $2, $3, $4, $5)`,
		carID, in.TyresAndWheels.FrontTyres, in.TyresAndWheels.RearTyres,
		in.TyresAndWheels.FrontRims, in.TyresAndWheels.RearRims,
	)
	if err != nil {
		return fmt.Errorf("failed to insert tyres_and_wheels: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit car insert: %w", err)
	}

	return nil
}
