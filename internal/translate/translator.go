package translate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/doctrans/doctrans/internal/errs"
	"github.com/doctrans/doctrans/internal/normalize"
	"github.com/doctrans/doctrans/pkg/log"
)

// systemPrompt constrains the model to emit nothing but translated markup.
const systemPrompt = `You are translating HTML content. Your ONLY task is to translate the text within HTML tags from the source language to the target language.

IMPORTANT RULES:
1. OUTPUT ONLY THE TRANSLATED HTML - do not include any explanations, introductions, or commentary
2. Do not add phrases like "Here's the translation" or "Translated content" to your response
3. Preserve ALL HTML tags and attributes exactly as they appear in the original
4. Maintain document structure, layout, classes, and styling
5. Keep all CSS classes, ID attributes, and other HTML attributes unchanged
6. Preserve table structures and form layouts exactly
7. Translate ONLY the visible text content that would be displayed to users

Your entire response must be valid HTML that could be directly used in a webpage without any modifications.`

// TextTranslator is the text-generation capability: one generate call per
// chunk.
type TextTranslator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Options tune the retry loop. Zero values fall back to defaults.
type Options struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Timeout     time.Duration
}

// Translator translates one markup chunk at a time, retrying transient
// provider failures and malformed output with a doubling backoff.
type Translator struct {
	provider TextTranslator
	opts     Options
}

func NewTranslator(provider TextTranslator, opts Options) *Translator {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = 500 * time.Millisecond
	}
	return &Translator{provider: provider, opts: opts}
}

// TranslateChunk translates a single markup chunk from fromLang to toLang.
// Provider and content failures are retried up to MaxAttempts total
// attempts; config errors abort immediately. After the final attempt fails
// the returned error carries the translation kind and the last cause.
func (t *Translator) TranslateChunk(ctx context.Context, content, fromLang, toLang string) (string, error) {
	chunkID := ChunkID(content)
	start := time.Now()
	log.Info("Starting translation of chunk %s (%d chars) from %s to %s",
		chunkID, len(content), fromLang, toLang)

	var lastErr error
	delay := t.opts.BaseDelay

	for attempt := 1; attempt <= t.opts.MaxAttempts; attempt++ {
		out, err := t.translateOnce(ctx, content, fromLang, toLang)
		if err == nil {
			log.Info("Successfully translated chunk %s, length: %d chars, took %.2fs",
				chunkID, len(out), time.Since(start).Seconds())
			return out, nil
		}

		if !errs.Retryable(err) {
			return "", err
		}
		lastErr = err
		log.Error("Translation error for chunk %s (attempt %d/%d): %v",
			chunkID, attempt, t.opts.MaxAttempts, err)

		if attempt < t.opts.MaxAttempts {
			log.Info("Retrying chunk %s in %v (attempt %d/%d)",
				chunkID, delay, attempt+1, t.opts.MaxAttempts)
			select {
			case <-ctx.Done():
				return "", errs.Wrap(ctx.Err(), errs.KindTranslation, "translation canceled").
					WithContext("chunk", chunkID)
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return "", errs.Wrap(lastErr, errs.KindTranslation,
		fmt.Sprintf("translation failed after %d attempts", t.opts.MaxAttempts)).
		WithContext("chunk", chunkID)
}

func (t *Translator) translateOnce(ctx context.Context, content, fromLang, toLang string) (string, error) {
	if t.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.opts.Timeout)
		defer cancel()
	}

	userPrompt := fmt.Sprintf("Translate the text in this HTML from %s to %s.\n\n%s",
		fromLang, toLang, content)

	raw, err := t.provider.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		if errs.KindOf(err) != errs.KindUnknown {
			return "", err
		}
		return "", errs.Wrap(err, errs.KindProvider, "translation call failed")
	}

	translated := normalize.StripPreamble(normalize.StripFences(raw))
	if !normalize.StartsWithTag(translated) {
		// Last resort: salvage everything from the first tag onward.
		salvaged, found := normalize.FromFirstTag(translated)
		if found {
			log.Warn("Response doesn't start with a tag, salvaged markup from offset")
			translated = salvaged
		}
	}

	if strings.TrimSpace(translated) == "" {
		return "", errs.New(errs.KindContent, "empty translation result")
	}
	if !normalize.StartsWithTag(translated) {
		return "", errs.New(errs.KindContent, "translation result is not valid markup")
	}
	return translated, nil
}

// ChunkID is a short content-derived identifier used for logging and
// idempotency. Not persisted.
func ChunkID(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:7]
}
