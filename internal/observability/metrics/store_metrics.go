package metrics

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

var storeOnce sync.Once

// RegisterEventStore exposes the stored row count of the event table and the
// connection pool stats. table must already be a validated identifier.
func RegisterEventStore(db *sql.DB, table string, logger zerolog.Logger) {
	if db == nil {
		return
	}
	storeOnce.Do(func() {
		query := fmt.Sprintf("SELECT COUNT(*) FROM %s", table)
		prometheus.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: metricPrefix + "stored_events",
				Help: "Rows in the event table",
			},
			func() float64 {
				return queryCount(db, logger, query)
			},
		))
		prometheus.MustRegister(collectors.NewDBStatsCollector(db, "ruuvari"))
	})
}

func queryCount(db *sql.DB, logger zerolog.Logger, query string) float64 {
	var count int64
	if err := db.QueryRow(query).Scan(&count); err != nil {
		logger.Warn().Err(err).Msg("metrics query failed")
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
