package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	paymentsInitiated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "elimisha",
		Subsystem: "payment",
		Name:      "initiated_total",
		Help:      "STK push attempts accepted by the gateway.",
	})

	paymentTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "elimisha",
		Subsystem: "payment",
		Name:      "transitions_total",
		Help:      "Payment records settled into a terminal status.",
	}, []string{"status"})

	callbacksReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "elimisha",
		Subsystem: "payment",
		Name:      "callbacks_total",
		Help:      "Gateway callbacks by handling outcome.",
	}, []string{"outcome"})
)

const (
	callbackOutcomeApplied = "applied"
	callbackOutcomePending = "pending"
	callbackOutcomeUnknown = "unknown"
	callbackOutcomeInvalid = "invalid"
	callbackOutcomeError   = "error"
)
