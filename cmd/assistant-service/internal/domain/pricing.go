package domain

import "errors"

// ErrInvalidEstimate 估价参数不合法
var ErrInvalidEstimate = errors.New("invalid estimate input")

// VehicleType 车型
type VehicleType string

const (
	VehicleSedan VehicleType = "sedan"
	VehicleSUV   VehicleType = "suv"
	VehicleTempo VehicleType = "tempo"
)

// Frequency 服务频率
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// EstimateInput 估价输入
type EstimateInput struct {
	EmployeeCount int         `json:"employee_count"`
	Shifts        int         `json:"shifts"`
	DistanceKM    float64     `json:"distance_km"`
	VehicleType   VehicleType `json:"vehicle_type"`
	Frequency     Frequency   `json:"frequency"`
	HasAC         bool        `json:"has_ac"`
	HasGPS        bool        `json:"has_gps"`
}

// Estimate 估价结果，金额单位为卢比
type Estimate struct {
	MonthlyCost    int64 `json:"monthly_cost"`
	Savings        int64 `json:"savings"`
	VehiclesNeeded int   `json:"vehicles_needed"`
}
