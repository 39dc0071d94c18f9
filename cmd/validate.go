package cmd

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/autobrr/tqv/pkg/client"
	"github.com/autobrr/tqv/pkg/logger"
	"github.com/autobrr/tqv/pkg/paths"
)

var validateCmd = &cobra.Command{
	Use:   "validate [PATH]",
	Short: "Validate torrent record listings",
	Long: `This command strictly decodes a JSON listing of torrent records (a single object or an array).
When PATH is a directory, every .json file below it is validated. Exits with status 1 when any listing is malformed.`,

	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		// logging only, listings need no config
		log := logger.GetLogger("validate")

		files, err := listingFiles(args[0])
		if err != nil {
			log.WithError(err).Fatalf("Failed finding listings in: %q", args[0])
		}

		failed := 0
		for _, f := range files {
			n, unparsed, err := validateListing(f)
			if err != nil {
				log.WithError(err).Errorf("Malformed listing: %q", f)
				failed++
				continue
			}

			for _, u := range unparsed {
				log.WithError(u).Warnf("Free-form display text in %q, read as unknown", f)
			}
			log.Infof("Valid listing: %q (%d records)", f, n)
		}

		if failed > 0 {
			log.Errorf("%d of %d listing(s) malformed", failed, len(files))
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func listingFiles(path string) ([]string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if !fi.IsDir() {
		return []string{path}, nil
	}

	found, err := paths.Listings(path, ".json")
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(found))
	for _, p := range found {
		files = append(files, p.Path)
	}

	if len(files) == 0 {
		return nil, errors.Errorf("no .json listings below %s", path)
	}

	return files, nil
}

// validateListing strictly decodes the listing at path and returns its
// record count. Display text outside the size, rate and ETA grammar does not
// make a record malformed and is returned in unparsed.
func validateListing(path string) (n int, unparsed []error, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, nil, err
	}

	records, unparsed, err := client.CheckListing(data)
	if err != nil {
		return 0, nil, err
	}

	return len(records), unparsed, nil
}
