package loadbalancer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tair/wholesale-backoffice/api-gateway/loadbalancer"
)

func TestRoundRobin_RotatesThroughServers(t *testing.T) {
	servers := []string{"http://a:8080", "http://b:8080", "http://c:8080"}
	rr := loadbalancer.NewRoundRobin(servers)

	var picked []string
	for i := 0; i < 6; i++ {
		picked = append(picked, rr.Next())
	}

	assert.Equal(t, []string{
		"http://a:8080", "http://b:8080", "http://c:8080",
		"http://a:8080", "http://b:8080", "http://c:8080",
	}, picked)
}

func TestRoundRobin_DefaultsWhenEmpty(t *testing.T) {
	rr := loadbalancer.NewRoundRobin(nil)
	assert.Equal(t, "http://localhost:8080", rr.Next())
}

func TestRoundRobin_GetServersReturnsCopy(t *testing.T) {
	rr := loadbalancer.NewRoundRobin([]string{"http://a:8080"})

	servers := rr.GetServers()
	servers[0] = "mutated"

	assert.Equal(t, []string{"http://a:8080"}, rr.GetServers())
}
