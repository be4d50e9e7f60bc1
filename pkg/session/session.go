package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"igextract/pkg/checkpoint"
	errs "igextract/pkg/errors"
	"igextract/pkg/fetch"
	"igextract/pkg/instagram"
	"igextract/pkg/logger"
	"igextract/pkg/paginate"
	"igextract/pkg/parse"
	"igextract/pkg/proxy"
	"igextract/pkg/ratelimit"
	"igextract/pkg/record"
	"igextract/pkg/retry"
)

// Session owns one extraction run: request, cookie jar, rate limiter,
// proxy pool and both fetch strategies. Nothing in it is shared across
// sessions.
type Session struct {
	id      string
	req     ExtractionRequest
	opts    Options
	log     logger.Logger
	jar     *sessionJar
	limiter ratelimit.Limiter
	proxies *proxy.Manager
	policy  *retry.Policy

	api     fetch.Strategy
	browser fetch.Strategy

	// newStrategies builds the strategy pair once the proxy identity is
	// bound. Tests swap in fakes here.
	newStrategies func(cfg fetch.Config) (api, browser fetch.Strategy)
}

// New validates the request and assembles the session's resources. The
// fetch strategies are not built until Run binds the proxy identity.
func New(req ExtractionRequest, opts Options) (*Session, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	opts.applyDefaults()

	id := uuid.NewString()
	log := opts.Logger.WithFields(map[string]interface{}{
		"session": id[:8],
		"target":  req.Ref(),
	})

	jar, err := newSessionJar(opts.Credentials, opts.BaseURL)
	if err != nil {
		return nil, errs.Wrap(errs.ClassFatal, "building cookie jar", err)
	}

	proxies, err := proxy.NewManager(req.Proxies, log)
	if err != nil {
		return nil, errs.Wrap(errs.ClassFatal, "building proxy pool", err)
	}

	rl := opts.RateLimit
	limiter := ratelimit.NewSlidingWindow(rl.MaxRequests, rl.Window, rl.MinDelay, rl.MaxDelay).WithLogger(log)

	s := &Session{
		id:      id,
		req:     req,
		opts:    opts,
		log:     log,
		jar:     jar,
		limiter: limiter,
		proxies: proxies,
		policy:  opts.Policy,
	}
	s.newStrategies = func(cfg fetch.Config) (fetch.Strategy, fetch.Strategy) {
		return fetch.NewAPIStrategy(cfg), fetch.NewBrowserStrategy(cfg, opts.Browser)
	}
	return s, nil
}

// Run executes the extraction and aggregates everything it produced.
// The returned result is valid even alongside an error: it carries the
// records collected before the run aborted, with status partial.
func Run(ctx context.Context, req ExtractionRequest, opts Options) (*ExtractionResult, error) {
	s, err := New(req, opts)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx)
}

// ID returns the session's unique id.
func (s *Session) ID() string {
	return s.id
}

// Run drives the extraction for the session's request. It may be called
// once.
func (s *Session) Run(ctx context.Context) (*ExtractionResult, error) {
	result := &ExtractionResult{
		SessionID: s.id,
		Target:    s.req.Ref(),
		Type:      s.req.Type,
		Status:    StatusComplete,
		Failures:  []Failure{},
		StartedAt: time.Now(),
	}

	identity := s.proxies.Bind()
	s.api, s.browser = s.newStrategies(s.fetchConfig(identity))
	defer func() {
		if err := s.browser.Close(); err != nil {
			s.log.WithError(err).Debug("browser strategy close failed")
		}
		if err := s.api.Close(); err != nil {
			s.log.WithError(err).Debug("api strategy close failed")
		}
	}()

	s.log.WithFields(map[string]interface{}{
		"type":      string(s.req.Type),
		"proxy":     identity.String(),
		"anonymous": s.opts.Credentials.Anonymous(),
	}).Info("extraction session started")

	var runErr error
	switch s.req.Type {
	case ScrapeProfile:
		runErr = s.runProfile(ctx, result)
	case ScrapePosts, ScrapeReels, ScrapeHashtag, ScrapeLocation:
		runErr = s.runFeed(ctx, result)
	case ScrapeComments:
		runErr = s.runComments(ctx, result)
	}

	result.Duration = time.Since(result.StartedAt)
	if runErr != nil || result.aborted() {
		result.Status = StatusPartial
	}

	s.log.WithFields(map[string]interface{}{
		"status":   string(result.Status),
		"profiles": result.Counts.Profiles,
		"posts":    result.Counts.Posts,
		"comments": result.Counts.Comments,
		"pages":    result.Counts.Pages,
		"failures": len(result.Failures),
		"duration": result.Duration,
	}).Info("extraction session finished")

	return result, runErr
}

func (s *Session) fetchConfig(identity proxy.Identity) fetch.Config {
	return fetch.Config{
		Jar:       s.jar,
		UserAgent: s.opts.Credentials.UserAgent,
		CSRFToken: s.opts.Credentials.CSRFToken,
		Proxy:     identity,
		Timeout:   s.opts.Timeout,
		Logger:    s.log,
		BaseURL:   s.opts.BaseURL,
	}
}

// runProfile is a single fetch and parse; profiles have no pagination.
func (s *Session) runProfile(ctx context.Context, result *ExtractionResult) error {
	f := s.newFetcher(s.req.Target(), result)
	page, err := f.fetchPage(ctx, paginate.Cursor{})
	if err != nil {
		return err
	}
	result.Counts.Pages++

	if len(page.Profiles) == 0 {
		return errs.New(errs.ClassStructural, "profile payload produced no profile record")
	}
	profile := page.Profiles[0]
	if !s.req.IncludeMetrics {
		scrubProfileMetrics(&profile)
	}
	result.Profile = &profile
	result.Counts.Profiles = 1
	return nil
}

// runFeed walks a paginated post feed: a user timeline for posts and
// reels, or a recent-media feed for hashtags and locations. Streaming
// filters run before the walker counts a page, so bounds apply to
// qualifying posts only.
func (s *Session) runFeed(ctx context.Context, result *ExtractionResult) error {
	target := s.req.Target()
	ref := target.Ref()

	state, start, seed := s.resumePoint(&target)

	f := s.newFetcher(target, result)
	walker := paginate.NewWalker(paginate.Options{
		MaxItems:   s.req.MaxPosts,
		MaxPages:   s.req.MaxPages,
		StallPages: s.opts.StallPages,
	}).WithLogger(s.log).Seed(seed)

	fetchFn := func(ctx context.Context, cursor paginate.Cursor) (*parse.Page, error) {
		page, err := f.fetchPage(ctx, cursor)
		if err != nil {
			return nil, err
		}
		s.filterPosts(page)
		return page, nil
	}

	emitFn := func(page *parse.Page, next paginate.Cursor) error {
		result.Posts = append(result.Posts, page.Posts...)
		result.Counts.Posts += len(page.Posts)
		if state != nil {
			state.Cursor = next.Token
			state.Page = next.Page
			state.OwnerID = f.target.UserID
			state.SeenKeys = walker.SeenKeys()
			state.Items += page.Len()
			if err := s.opts.Checkpoints.Save(state); err != nil {
				s.log.WithError(err).Warn("checkpoint save failed")
			}
		}
		return nil
	}

	walkResult, err := walker.Walk(ctx, start, fetchFn, emitFn)
	result.Counts.Pages += walkResult.Pages
	if err != nil {
		return err
	}

	s.log.WithFields(map[string]interface{}{
		"posts":  walkResult.Items,
		"pages":  walkResult.Pages,
		"reason": string(walkResult.Reason),
	}).Info("feed walk finished")

	if s.req.IncludeComments {
		if err := s.collectComments(ctx, result); err != nil {
			return err
		}
	}

	if state != nil {
		if err := s.opts.Checkpoints.Delete(ref); err != nil {
			s.log.WithError(err).Warn("checkpoint delete failed")
		}
	}
	return nil
}

// runComments extracts the comment pages of one post.
func (s *Session) runComments(ctx context.Context, result *ExtractionResult) error {
	comments, err := s.walkComments(ctx, s.req.Shortcode, result)
	if err != nil {
		return err
	}
	result.Comments = comments
	result.Counts.Comments = len(comments)
	return nil
}

// collectComments nests a bounded comment walk under each collected post.
// A post whose comment walk is abandoned keeps the posts collected so
// far; only pool exhaustion and cancellation abort the whole run.
func (s *Session) collectComments(ctx context.Context, result *ExtractionResult) error {
	for i := range result.Posts {
		post := &result.Posts[i]
		if post.Shortcode == "" {
			continue
		}
		comments, err := s.walkComments(ctx, post.Shortcode, result)
		if err != nil {
			if errs.Is(err, errs.ClassProxyPoolExhausted) || ctx.Err() != nil {
				return err
			}
			// Recorded already; the next post still gets its chance.
			continue
		}
		post.Comments = comments
		result.Counts.Comments += len(comments)
	}
	return nil
}

func (s *Session) walkComments(ctx context.Context, shortcode string, result *ExtractionResult) ([]record.Comment, error) {
	target := instagram.Target{Kind: instagram.TargetComments, Shortcode: shortcode}
	f := s.newFetcher(target, result)
	walker := paginate.NewWalker(paginate.Options{
		MaxItems:   s.req.MaxComments,
		StallPages: s.opts.StallPages,
	}).WithLogger(s.log)

	var comments []record.Comment
	walkResult, err := walker.Walk(ctx, paginate.Cursor{},
		func(ctx context.Context, cursor paginate.Cursor) (*parse.Page, error) {
			return f.fetchPage(ctx, cursor)
		},
		func(page *parse.Page, _ paginate.Cursor) error {
			for i := range page.Comments {
				if !s.req.IncludeMetrics {
					scrubCommentMetrics(&page.Comments[i])
				}
				comments = append(comments, page.Comments[i])
			}
			return nil
		})
	result.Counts.Pages += walkResult.Pages
	if err != nil {
		return nil, err
	}
	return comments, nil
}

// resumePoint decides where a feed walk starts. With checkpointing off it
// always starts fresh and persists nothing.
func (s *Session) resumePoint(target *instagram.Target) (*checkpoint.State, paginate.Cursor, []string) {
	if s.opts.Checkpoints == nil {
		return nil, paginate.Cursor{}, nil
	}
	ref := target.Ref()

	if s.req.ForceRestart {
		if err := s.opts.Checkpoints.Delete(ref); err != nil {
			s.log.WithError(err).Warn("checkpoint discard failed")
		}
	} else if s.req.Resume {
		saved, err := s.opts.Checkpoints.Load(ref)
		if err != nil {
			s.log.WithError(err).Warn("checkpoint load failed, starting fresh")
		} else if saved != nil {
			target.UserID = saved.OwnerID
			s.log.WithFields(map[string]interface{}{
				"page":  saved.Page,
				"items": saved.Items,
			}).Info("resuming from checkpoint")
			return saved, paginate.Cursor{Token: saved.Cursor, Page: saved.Page}, saved.SeenKeys
		}
	}
	return checkpoint.NewState(ref, string(s.req.Type)), paginate.Cursor{}, nil
}

// filterPosts applies the request's streaming filters to a fetched page:
// reels extraction keeps only video posts, date bounds drop posts outside
// the window, and withheld metrics are scrubbed.
func (s *Session) filterPosts(page *parse.Page) {
	kept := page.Posts[:0]
	for _, post := range page.Posts {
		if s.req.Type == ScrapeReels && !post.IsReel() {
			continue
		}
		if !s.req.InDateRange(post.Timestamp) {
			continue
		}
		if !s.req.IncludeMetrics {
			scrubPostMetrics(&post)
		}
		kept = append(kept, post)
	}
	page.Posts = kept
}

func scrubProfileMetrics(p *record.Profile) {
	p.Followers = record.UnknownMetric()
	p.Following = record.UnknownMetric()
	p.PostCount = record.UnknownMetric()
}

func scrubPostMetrics(p *record.Post) {
	p.Likes = record.UnknownMetric()
	p.CommentCount = record.UnknownMetric()
	p.VideoViews = record.UnknownMetric()
	p.Shares = record.UnknownMetric()
}

func scrubCommentMetrics(c *record.Comment) {
	c.Likes = record.UnknownMetric()
	c.ReplyCount = record.UnknownMetric()
}
