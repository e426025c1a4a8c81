package biz

import (
	"fmt"
	"math"

	"velora/cmd/assistant-service/internal/domain"
)

// 每公里费率
var kmRates = map[domain.VehicleType]float64{
	domain.VehicleSedan: 12,
	domain.VehicleSUV:   15,
	domain.VehicleTempo: 20,
}

// 单车载客量
var vehicleCapacity = map[domain.VehicleType]int{
	domain.VehicleSedan: 4,
	domain.VehicleSUV:   6,
	domain.VehicleTempo: 12,
}

// 月度频率系数
var frequencyMultiplier = map[domain.Frequency]float64{
	domain.FrequencyDaily:   30,
	domain.FrequencyWeekly:  4,
	domain.FrequencyMonthly: 1,
}

const (
	acMultiplier  = 1.2
	gpsMultiplier = 1.1
	// 传统通勤成本约为估价的 1.4 倍
	regularCostRatio = 1.4
)

// PricingCalculator 企业通勤月度估价
type PricingCalculator struct{}

// NewPricingCalculator 创建估价器
func NewPricingCalculator() *PricingCalculator {
	return &PricingCalculator{}
}

// Estimate 计算月度费用与节省金额
func (p *PricingCalculator) Estimate(in domain.EstimateInput) (*domain.Estimate, error) {
	if err := validateEstimate(in); err != nil {
		return nil, err
	}

	vehicles := int(math.Ceil(float64(in.EmployeeCount) / float64(vehicleCapacity[in.VehicleType])))

	estimate := in.DistanceKM * kmRates[in.VehicleType]
	estimate *= float64(in.Shifts)
	estimate *= float64(vehicles)
	estimate *= frequencyMultiplier[in.Frequency]
	if in.HasAC {
		estimate *= acMultiplier
	}
	if in.HasGPS {
		estimate *= gpsMultiplier
	}

	monthly := math.Round(estimate)
	savings := math.Round(monthly*regularCostRatio - monthly)

	return &domain.Estimate{
		MonthlyCost:    int64(monthly),
		Savings:        int64(savings),
		VehiclesNeeded: vehicles,
	}, nil
}

func validateEstimate(in domain.EstimateInput) error {
	switch {
	case in.EmployeeCount < 1:
		return fmt.Errorf("%w: employee_count must be at least 1", domain.ErrInvalidEstimate)
	case in.Shifts < 1 || in.Shifts > 3:
		return fmt.Errorf("%w: shifts must be between 1 and 3", domain.ErrInvalidEstimate)
	case in.DistanceKM < 1:
		return fmt.Errorf("%w: distance_km must be at least 1", domain.ErrInvalidEstimate)
	}
	if _, ok := kmRates[in.VehicleType]; !ok {
		return fmt.Errorf("%w: unknown vehicle_type %q", domain.ErrInvalidEstimate, in.VehicleType)
	}
	if _, ok := frequencyMultiplier[in.Frequency]; !ok {
		return fmt.Errorf("%w: unknown frequency %q", domain.ErrInvalidEstimate, in.Frequency)
	}
	return nil
}
