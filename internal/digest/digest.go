package digest

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/paalso/microblog-go/internal/mailer"
	"github.com/paalso/microblog-go/internal/services"
)

// maxPostsPerDigest bounds how many posts a single digest email lists.
const maxPostsPerDigest = 50

// Digest periodically mails each user the posts that appeared in their feed
// since the previous run.
type Digest struct {
	userSvc services.UserServiceProvider
	postSvc services.PostServiceProvider
	mailer  mailer.Mailer
	cronExp string
	lastRun time.Time
	done    chan bool
}

// New creates a digest worker driven by a standard cron expression.
func New(userSvc services.UserServiceProvider, postSvc services.PostServiceProvider, m mailer.Mailer, cronExp string) *Digest {
	return &Digest{
		userSvc: userSvc,
		postSvc: postSvc,
		mailer:  m,
		cronExp: cronExp,
		lastRun: time.Now().UTC(),
		done:    make(chan bool, 1),
	}
}

// Run starts the digest loop. It blocks until Stop is called.
func (d *Digest) Run() {
	schedule, err := cron.ParseStandard(d.cronExp)
	if err != nil {
		log.Error().Err(err).Str("cron", d.cronExp).Msg("Digest: invalid cron expression, worker not started")
		return
	}

	log.Info().Str("cron", d.cronExp).Msg("Starting feed digest worker...")
	for {
		next := schedule.Next(time.Now())
		select {
		case <-d.done:
			log.Info().Msg("Stopping feed digest worker.")
			return
		case <-time.After(time.Until(next)):
			d.sendDigests()
		}
	}
}

// Stop halts the digest worker.
func (d *Digest) Stop() {
	d.done <- true
}

// sendDigests mails every user their unseen feed posts since the last run.
func (d *Digest) sendDigests() {
	since := d.lastRun
	d.lastRun = time.Now().UTC()

	users, err := d.userSvc.ListUsers()
	if err != nil {
		log.Error().Err(err).Msg("Digest: failed to list users")
		return
	}

	sent := 0
	for _, user := range users {
		posts, err := d.postSvc.FeedSince(user.ID, since, maxPostsPerDigest)
		if err != nil {
			log.Error().Err(err).Str("user_id", user.ID).Msg("Digest: feed query failed")
			continue
		}
		if len(posts) == 0 {
			continue
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Hi %s,\n\nNew posts in your feed:\n\n", user.Username)
		for _, post := range posts {
			fmt.Fprintf(&b, "- %s: %s\n", post.Username, post.Body)
		}

		subject := fmt.Sprintf("[Microblog] %d new posts in your feed", len(posts))
		if err := d.mailer.Send(user.Email, subject, b.String()); err != nil {
			continue
		}
		sent++
	}
	log.Info().Int("sent", sent).Time("since", since).Msg("Digest run complete")
}
