package translate

import (
	"context"
	"errors"

	"github.com/minios-linux/hanlift/catalog"
)

// BackfillOptions tunes a Backfill run.
type BackfillOptions struct {
	// Retranslate reports whether an existing target value should be
	// translated again, e.g. because its source text changed. Nil keeps
	// every existing value.
	Retranslate func(key, source string) bool
}

// Entry is one target value written by Backfill.
type Entry struct {
	Key    string
	Source string
	Value  string
	// Fallback is set when Value is the source text because the call
	// failed or could not be made.
	Fallback bool
}

// Report summarizes a Backfill run.
type Report struct {
	// Calls counts Translate calls that were attempted against the
	// service. Calls refused for missing credentials do not count.
	Calls int
	// Translated counts values the service produced.
	Translated int
	// Fallbacks counts values copied from the source text.
	Fallbacks int
	// Skipped counts leaves whose target value already existed.
	Skipped int
	// Blocked counts keys whose target path runs through a leaf.
	Blocked int
	// Entries lists every written value in source document order.
	Entries []Entry
}

// Changed reports whether the target catalog was modified.
func (r Report) Changed() bool { return len(r.Entries) > 0 }

// Backfill walks every string leaf of src in document order and fills the
// same key in dst when it is missing or empty. Calls are made one at a
// time. A failed call stores the source text instead and the walk goes on;
// only cancellation of ctx stops it early, returning the partial report.
func Backfill(ctx context.Context, src, dst *catalog.Catalog, tr Translator, opts BackfillOptions) (Report, error) {
	var rep Report
	warnedNoCreds := false

	err := src.Walk(func(path []string, source string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if source == "" {
			return nil
		}

		key := catalog.JoinKey(path)
		existing := dst.Has(path)
		if existing {
			if opts.Retranslate == nil || !opts.Retranslate(key, source) {
				rep.Skipped++
				return nil
			}
		}

		value, err := translateOne(ctx, tr, source)
		if !errors.Is(err, ErrNoCredentials) {
			rep.Calls++
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		fallback := err != nil
		switch {
		case errors.Is(err, ErrNoCredentials):
			if !warnedNoCreds {
				Logger.Warn().Msg("No translation credentials, copying source text")
				warnedNoCreds = true
			}
		case err != nil:
			Logger.Warn().
				Err(err).
				Str("key", key).
				Str("text", source).
				Msg("Translation failed, using source text")
		}

		if fallback {
			if existing {
				rep.Skipped++
				return nil
			}
			value = source
		}

		if err := dst.SetPath(path, value); err != nil {
			rep.Blocked++
			Logger.Warn().
				Err(err).
				Str("key", key).
				Msg("Cannot store translation")
			return nil
		}

		if fallback {
			rep.Fallbacks++
		} else {
			rep.Translated++
		}
		rep.Entries = append(rep.Entries, Entry{Key: key, Source: source, Value: value, Fallback: fallback})
		return nil
	})

	return rep, err
}

// translateOne calls tr for one text. A nil translator behaves as one
// without credentials; an empty reply is an ErrBadResponse.
func translateOne(ctx context.Context, tr Translator, text string) (string, error) {
	if tr == nil {
		return "", ErrNoCredentials
	}
	value, err := tr.Translate(ctx, text)
	if err != nil {
		return "", err
	}
	if value == "" {
		return "", ErrBadResponse
	}
	return value, nil
}
