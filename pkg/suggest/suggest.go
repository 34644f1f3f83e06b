// Package suggest picks the starter questions offered when a transcript
// is empty.
package suggest

import (
	"math/rand/v2"
)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

// MaxSuggestions is the number of suggestions shown at session start.
const MaxSuggestions = 5

// Defaults is the built-in candidate list.
var Defaults = []string{
	"What are Danilo's core technical skills?",
	"Tell me about his experience at Walmart.",
	"Does he have experience with GenAI?",
	"What awards has he won?",
	"How did he improve video processing speed at Pactto?",
	"What did he do at Sam's Club?",
	"Tell me about his work with drones at Shield.ai.",
	"What is his experience with Kotlin?",
	"Has he worked with Jetpack Compose?",
	"What side projects has he built?",
	"Tell me about 'Aurora' and 'Cupidoodle'.",
	"What are his soft skills?",
	"What do his colleagues say about him?",
	"Does he have leadership experience?",
	"What is his educational background?",
	"Has he given any public speeches?",
	"What languages does he speak?",
	"Tell me about his harmonica course.",
	"What technologies does he use for Backend?",
	"Does he know Python and FastAPI?",
	"What is his experience with AWS?",
	"How many years of experience does he have?",
	"What is his approach to unit testing?",
	"Has he worked with startups?",
	"What did he build for Harley Davidson?",
	"Tell me about his Anti-Corruption Award.",
	"Does he have experience with WebSockets?",
	"What is his 'Looking For' statement?",
	"How does he handle cross-functional collaboration?",
	"What are his personal values?",
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Sample returns min(k, n) distinct strings chosen uniformly at random
// from the n distinct candidates. Repeated candidates count once. Each call
// uses a freshly seeded source, so successive samples are independent.
func Sample(candidates []string, k int) []string {
	pool := unique(candidates)
	if k > len(pool) {
		k = len(pool)
	}
	if k <= 0 {
		return []string{}
	}

	// Partial Fisher-Yates: the first k slots end up a uniform sample
	r := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	for i := 0; i < k; i++ {
		j := i + r.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k:k]
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// unique returns a copy of values without repeats, keeping first occurrences.
func unique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
