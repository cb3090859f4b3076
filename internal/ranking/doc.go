// Package ranking asks an external language model to order feed candidates
// by relevance to a viewer's free-text description.
//
// The oracle is advisory. Client.Rank never returns an error: when the call
// fails, times out, is rejected by the circuit breaker or answers with
// something that does not parse, the candidates come back in their original
// order with Result.Source set to SourceFallback.
//
// Basic usage:
//
//	prompts, err := ranking.LoadPrompts(cfg.RankingPromptsFile)
//	if err != nil {
//		slog.Warn("using default ranking prompts", "error", err)
//	}
//	client, err := ranking.NewClient(ranking.ClientConfig{
//		URL:     cfg.RankingAPIURL,
//		APIKey:  cfg.RankingAPIKey,
//		Prompts: prompts,
//	}, ranking.NewMetrics(), logger)
//
//	result := client.Rank(ctx, candidate.KindMentor, viewer.Description, candidates)
//
// The response text is parsed by ParseRanking: a JSON array of ids is
// preferred, and the first bracketed list in free text is accepted as a
// fallback. Ids are returned as text and may include ids the caller never
// sent; callers must ignore those.
package ranking
