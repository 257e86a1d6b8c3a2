package jobs

import (
	"log"
	"time"

	"tackler-server/config"
	"tackler-server/services"
)

// ExpirationJob sweeps pending bids whose window has elapsed.
type ExpirationJob struct {
	bidService *services.BidService
	stopChan   chan struct{}
}

func NewExpirationJob() *ExpirationJob {
	return &ExpirationJob{
		bidService: services.NewBidService(),
		stopChan:   make(chan struct{}),
	}
}

// Start runs the expiration sweep on an interval.
func (j *ExpirationJob) Start() {
	interval := config.AppConfig.Bidding.SweepInterval
	log.Printf("✅ Bid expiration job started (interval: %v)", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run once at startup to catch bids that expired while the server was down
	j.sweep()

	for {
		select {
		case <-ticker.C:
			j.sweep()
		case <-j.stopChan:
			log.Println("🛑 Bid expiration job stopped")
			return
		}
	}
}

// Stop terminates the job loop.
func (j *ExpirationJob) Stop() {
	close(j.stopChan)
}

func (j *ExpirationJob) sweep() {
	count, err := j.bidService.ExpireBids()
	if err != nil {
		log.Printf("❌ Error expiring bids: %v", err)
		return
	}
	if count > 0 {
		log.Printf("🧹 Expired %d stale bid(s)", count)
	}
}
