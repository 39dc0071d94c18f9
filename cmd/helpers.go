package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/autobrr/tqv/pkg/client"
	"github.com/autobrr/tqv/pkg/config"
	"github.com/autobrr/tqv/pkg/expression"
	"github.com/autobrr/tqv/pkg/notification"
	"github.com/autobrr/tqv/pkg/session"
	"github.com/autobrr/tqv/pkg/torrent"
)

func getClientConfigString(setting string, clientConfig map[string]interface{}) (*string, error) {
	value, ok := clientConfig[setting]
	if !ok {
		return nil, fmt.Errorf("no %q setting found in client configuration: %+v", setting, clientConfig)
	}

	typeValue, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("failed type-asserting %q of client: %#v", setting, value)
	}

	return &typeValue, nil
}

func validateClientEnabled(clientConfig map[string]interface{}) error {
	v, ok := clientConfig["enabled"]
	if !ok {
		return fmt.Errorf("no enabled setting found in client configuration: %+v", clientConfig)
	}

	enabled, ok := v.(bool)
	if !ok || !enabled {
		return fmt.Errorf("client is not enabled")
	}

	return nil
}

func getClientFilter(clientConfig map[string]interface{}) (*config.FilterConfiguration, error) {
	clientFilterName, err := getClientConfigString("filter", clientConfig)
	if err != nil {
		// a client without a filter only supports explicit ids
		return &config.FilterConfiguration{}, nil
	}

	return getFilter(*clientFilterName)
}

func getFilter(filterName string) (*config.FilterConfiguration, error) {
	clientFilter, ok := config.Config.Filters[filterName]
	if !ok {
		return nil, fmt.Errorf("failed finding configuration of filter: %+v", filterName)
	}

	return &clientFilter, nil
}

// newSession loads the named client with its filters and connects it. The
// session holds no snapshot until it is refreshed.
func newSession(ctx context.Context, log *logrus.Entry, clientName string, opts ...session.Option) (*session.Session, client.Interface) {
	// retrieve client object
	clientConfig, ok := config.Config.Clients[clientName]
	if !ok {
		log.Fatalf("No client configuration found for: %q", clientName)
	}

	// validate client is enabled
	if err := validateClientEnabled(clientConfig); err != nil {
		log.WithError(err).Fatal("Failed validating client is enabled")
	}

	// retrieve client type
	clientType, err := getClientConfigString("type", clientConfig)
	if err != nil {
		log.WithError(err).Fatal("Failed determining client type")
	}

	// retrieve client filters
	clientFilter, err := getClientFilter(clientConfig)
	if err != nil {
		log.WithError(err).Fatal("Failed retrieving client filter")
	}

	if flagFilterName != "" {
		clientFilter, err = getFilter(flagFilterName)
		if err != nil {
			log.WithError(err).Fatal("Failed retrieving specified filter")
		}
	}

	// compile client filters
	exp, err := expression.Compile(clientFilter)
	if err != nil {
		log.WithError(err).Fatal("Failed compiling client filters")
	}

	// load client object
	c, err := client.NewClient(*clientType, clientName, exp)
	if err != nil {
		log.WithError(err).Fatalf("Failed initializing client: %q", clientName)
	}

	log.Infof("Initialized client %q, type: %s", clientName, c.Type())

	// connect to client
	if err := c.Connect(ctx); err != nil {
		log.WithError(err).Fatal("Failed connecting")
	} else {
		log.Debugf("Connected to client")
	}

	return session.New(c, append([]session.Option{session.WithLogger(log)}, opts...)...), c
}

func parseIDs(args []string) ([]uint64, error) {
	ids := make([]uint64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseUint(strings.TrimPrefix(a, "#"), 10, 64)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("invalid torrent id: %q", a)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// selectByFilters returns the torrents the filter check selects, skipping
// the ones matched by the ignore filters.
func selectByFilters(log *logrus.Entry, c client.Interface, torrents []torrent.Torrent,
	check func(*torrent.Torrent) (bool, error)) ([]torrent.Torrent, error) {
	var selected []torrent.Torrent

	for _, t := range torrents {
		// check if torrent should be ignored
		if ignored, err := c.ShouldIgnore(&t); err != nil {
			log.WithError(err).Errorf("Failed checking ignore filters for torrent: %q", t.Name)
			continue
		} else if ignored {
			log.Debugf("Ignoring torrent: %q", t.Name)
			continue
		}

		match, err := check(&t)
		if err != nil {
			return nil, err
		} else if match {
			selected = append(selected, t)
		}
	}

	return selected, nil
}

func torrentIDs(torrents []torrent.Torrent) []uint64 {
	ids := make([]uint64, 0, len(torrents))
	for _, t := range torrents {
		ids = append(ids, t.ID)
	}
	return ids
}

// lookupTorrents resolves explicit ids against the current snapshot.
func lookupTorrents(s *session.Session, ids []uint64) ([]torrent.Torrent, error) {
	out := make([]torrent.Torrent, 0, len(ids))
	for _, id := range ids {
		t, ok := s.Get(id)
		if !ok {
			return nil, fmt.Errorf("%w: %d", session.ErrNotFound, id)
		}
		out = append(out, t)
	}

	return out, nil
}

func buildFields(noti notification.Sender, action notification.Action, torrents []torrent.Torrent, reason string) []notification.Field {
	fields := make([]notification.Field, 0, len(torrents))
	for _, t := range torrents {
		fields = append(fields, noti.BuildField(action, notification.BuildOptions{
			Torrent: t,
			Reason:  reason,
		}))
	}
	return fields
}
