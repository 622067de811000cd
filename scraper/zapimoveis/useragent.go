package zapimoveis

import "math/rand"

// userAgents is the pool of realistic request signatures rotated between
// browser sessions.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
}

// agentPool hands out user agents at random, never the same one on two
// consecutive sessions.
type agentPool struct {
	rand *rand.Rand
	last string
}

func newAgentPool(r *rand.Rand) *agentPool {
	return &agentPool{rand: r}
}

func (p *agentPool) Next() string {
	for {
		ua := userAgents[p.rand.Intn(len(userAgents))]
		if ua != p.last {
			p.last = ua
			return ua
		}
	}
}
