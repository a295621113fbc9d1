package models

import "time"

// The car specification is split across eight tables keyed by car_id, one per
// section of the source listing. All attribute values are kept as free-form
// strings because the classifieds site does not normalise units or formats.

// General holds the headline attributes of a listing, including the price.
type General struct {
	Brand           string `db:"brand" json:"brand"`
	Model           string `db:"model" json:"model"`
	Variant         string `db:"variant" json:"variant"`
	Series          string `db:"series" json:"series"`
	MfgYear         string `db:"mfg_year" json:"mfg_year"`
	Mileage         string `db:"mileage" json:"mileage"`
	Type            string `db:"type" json:"type"`
	SeatCapacity    string `db:"seat_capacity" json:"seat_capacity"`
	CountryOfOrigin string `db:"country_of_origin" json:"country_of_origin"`
	Price           string `db:"price" json:"price"`
}

type Transmission struct {
	Transmission string `db:"transmission" json:"transmission"`
}

type Engine struct {
	EngineCC         string `db:"engine_cc" json:"engine_cc"`
	CompressionRatio string `db:"compression_ratio" json:"compression_ratio"`
	PeakPower        string `db:"peak_power" json:"peak_power"`
	PeakTorque       string `db:"peak_torque" json:"peak_torque"`
	EngineType       string `db:"engine_type" json:"engine_type"`
	FuelType         string `db:"fuel_type" json:"fuel_type"`
}

type DimensionAndWeight struct {
	Length     string `db:"length" json:"length"`
	Width      string `db:"width" json:"width"`
	Height     string `db:"height" json:"height"`
	WheelBase  string `db:"wheel_base" json:"wheel_base"`
	KerbWeight string `db:"kerb_weight" json:"kerb_weight"`
	FuelTank   string `db:"fuel_tank" json:"fuel_tank"`
}

type Brakes struct {
	FrontBrakes string `db:"front_brakes" json:"front_brakes"`
	RearBrakes  string `db:"rear_brakes" json:"rear_brakes"`
}

type Suspension struct {
	FrontSuspension string `db:"front_suspension" json:"front_suspension"`
	RearSuspension  string `db:"rear_suspension" json:"rear_suspension"`
}

type Steering struct {
	Steering string `db:"steering" json:"steering"`
}

type TyresAndWheels struct {
	FrontTyres string `db:"front_tyres" json:"front_tyres"`
	RearTyres  string `db:"rear_tyres" json:"rear_tyres"`
	FrontRims  string `db:"front_rims" json:"front_rims"`
	RearRims   string `db:"rear_rims" json:"rear_rims"`
}

// CarInput is one scraped car before persistence. It carries no identifiers;
// the ingest worker assigns a car_id when it inserts the rows. CarInput is
// also the queue item exchanged between the scraper and the ingest worker.
type CarInput struct {
	General            General            `json:"general"`
	Transmission       Transmission       `json:"transmission"`
	Engine             Engine             `json:"engine"`
	DimensionAndWeight DimensionAndWeight `json:"dimension_and_weight"`
	Brakes             Brakes             `json:"brakes"`
	Suspension         Suspension         `json:"suspension"`
	Steering           Steering           `json:"steering"`
	TyresAndWheels     TyresAndWheels     `json:"tyres_and_wheels"`
}

// CarDetail is the read-side aggregate assembled by joining all eight tables
// on car_id. It maps straight to the response body of the car endpoints.
type CarDetail struct {
	CarID              string             `db:"car_id" json:"id"`
	General            General            `db:"general" json:"general"`
	Transmission       Transmission       `db:"transmission" json:"transmission"`
	Engine             Engine             `db:"engine" json:"engine"`
	DimensionAndWeight DimensionAndWeight `db:"dimension_and_weight" json:"dimension_and_weight"`
	Brakes             Brakes             `db:"brakes" json:"brakes"`
	Suspension         Suspension         `db:"suspension" json:"suspension"`
	Steering           Steering           `db:"steering" json:"steering"`
	TyresAndWheels     TyresAndWheels     `db:"tyres_and_wheels" json:"tyres_and_wheels"`
	CreatedAt          time.Time          `db:"created_at" json:"created_at"`
}
