package obs

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CheckoutTotal counts checkout attempts by outcome.
	CheckoutTotal *prometheus.CounterVec
	// CouponResolutionTotal counts coupon eligibility checks by result
	// (applied or one of the rejection reasons).
	CouponResolutionTotal *prometheus.CounterVec
	// CouponRedemptionTotal counts committed coupon redemptions.
	CouponRedemptionTotal *prometheus.CounterVec
	// OrderStatusTotal counts order status transitions.
	OrderStatusTotal *prometheus.CounterVec
	// OrderValue records order grand totals in minor units.
	OrderValue *prometheus.HistogramVec
	// NotifyDeliveriesTotal tracks notification dispatch outcomes.
	NotifyDeliveriesTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CheckoutTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_total",
			Help:      "Count of checkout attempts by outcome.",
		}, []string{"result"})
		CouponResolutionTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_resolution_total",
			Help:      "Count of coupon eligibility resolutions by result.",
		}, []string{"result"})
		CouponRedemptionTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coupon_redemption_total",
			Help:      "Count of committed coupon redemptions by coupon type.",
		}, []string{"type"})
		OrderStatusTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_status_total",
			Help:      "Count of order status transitions.",
		}, []string{"status"})
		OrderValue = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_value_minor_units",
			Help:      "Order grand totals in currency minor units.",
			Buckets:   []float64{1000, 2500, 5000, 10000, 25000, 50000, 100000, 250000},
		}, []string{"currency"})
		NotifyDeliveriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notify_deliveries_total",
			Help:      "Count of notification delivery outcomes.",
		}, []string{"topic", "result"})

		mustRegisterCollector(reg, CheckoutTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CheckoutTotal = v
			}
		})
		mustRegisterCollector(reg, CouponResolutionTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CouponResolutionTotal = v
			}
		})
		mustRegisterCollector(reg, CouponRedemptionTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CouponRedemptionTotal = v
			}
		})
		mustRegisterCollector(reg, OrderStatusTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				OrderStatusTotal = v
			}
		})
		mustRegisterCollector(reg, OrderValue, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				OrderValue = v
			}
		})
		mustRegisterCollector(reg, NotifyDeliveriesTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				NotifyDeliveriesTotal = v
			}
		})
	})
}

// The Observe helpers below are no-ops until MustRegisterDomainMetrics has
// run, so services stay usable in tests without a registry.

// ObserveCheckout records one checkout attempt by outcome.
func ObserveCheckout(result string) {
	if CheckoutTotal != nil {
		CheckoutTotal.WithLabelValues(result).Inc()
	}
}

// ObserveCouponResolution records one coupon eligibility resolution.
func ObserveCouponResolution(result string) {
	if CouponResolutionTotal != nil {
		CouponResolutionTotal.WithLabelValues(result).Inc()
	}
}

// ObserveCouponRedemption records one committed redemption by coupon type.
func ObserveCouponRedemption(couponType string) {
	if CouponRedemptionTotal != nil {
		CouponRedemptionTotal.WithLabelValues(couponType).Inc()
	}
}

// ObserveOrderStatus records one order status transition.
func ObserveOrderStatus(status string) {
	if OrderStatusTotal != nil {
		OrderStatusTotal.WithLabelValues(status).Inc()
	}
}

// ObserveOrderValue records an order grand total.
func ObserveOrderValue(currency string, total int64) {
	if OrderValue != nil {
		OrderValue.WithLabelValues(currency).Observe(float64(total))
	}
}

// ObserveNotifyDelivery records one notification dispatch outcome.
func ObserveNotifyDelivery(topic, result string) {
	if NotifyDeliveriesTotal != nil {
		NotifyDeliveriesTotal.WithLabelValues(topic, result).Inc()
	}
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
