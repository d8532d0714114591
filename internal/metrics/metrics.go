package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Uploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recyclesort_uploads_total",
			Help: "Direct image uploads by result.",
		},
		[]string{"result"},
	)

	AnalysisResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recyclesort_analysis_results_total",
			Help: "Stage-1 analysis outcomes.",
		},
		[]string{"result"},
	)

	InferenceResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recyclesort_inference_results_total",
			Help: "Stage-2 inference outcomes (matched, unclassified, failed).",
		},
		[]string{"outcome"},
	)

	PresignedURLs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recyclesort_presigned_urls_total",
			Help: "Issued presigned URLs by action.",
		},
		[]string{"action"},
	)
)
