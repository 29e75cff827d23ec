package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/berfenger/hostagent2mqtt/internal/core/domain"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeMaster(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{Id: domain.ACTOR_ID_MASTER, Healthy: true})
	case domain.ListEntitiesRequest:
		ctx.Respond(domain.ListEntitiesResponse{Entities: []domain.EntityInfo{
			{Id: "cpu-id", EntityName: "cpu", ObjectId: "cpu", Domain: "sensor", State: "12"},
		}})
	case domain.PollSensorRequest:
		if msg.EntityId != "disks-id" {
			ctx.Respond(domain.PollSensorResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: errors.New("unknown sensor")},
				EntityId:           msg.EntityId,
			})
			return
		}
		ctx.Respond(domain.PollSensorResponse{EntityId: msg.EntityId, Added: []string{"disks-id__data"}})
	case domain.PublishDiscoveryRequest:
		ctx.Respond(domain.PublishDiscoveryResponse{Published: 4})
	}
}

func testServer(t *testing.T) http.Handler {
	as := actor.NewActorSystem()
	t.Cleanup(as.Shutdown)
	pid := as.Root.Spawn(actor.PropsFromFunc(fakeMaster))
	s := &Server{rootContext: as.Root, masterActor: pid}
	return s.RegisterRoutes()
}

func TestHealthCheck(t *testing.T) {

	assert := assert.New(t)

	h := testServer(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	assert.Equal(http.StatusOK, rec.Code)
	assert.Equal("health_check: OK", rec.Body.String())
}

func TestListEntities(t *testing.T) {

	assert := assert.New(t)
	require := require.New(t)

	h := testServer(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/entities", nil))
	assert.Equal(http.StatusOK, rec.Code)

	var entities []map[string]any
	require.NoError(json.Unmarshal(rec.Body.Bytes(), &entities))
	require.Len(entities, 1)
	assert.Equal("cpu-id", entities[0]["id"])
	assert.Equal("12", entities[0]["state"])
}

func TestPollSensor(t *testing.T) {

	assert := assert.New(t)

	h := testServer(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/entities/disks-id/poll", nil))
	assert.Equal(http.StatusOK, rec.Code)
	assert.JSONEq(`{"id":"disks-id","added":["disks-id__data"]}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/entities/nope/poll", nil))
	assert.Equal(http.StatusNotFound, rec.Code)
}

func TestPublishDiscovery(t *testing.T) {

	assert := assert.New(t)

	h := testServer(t)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/discovery", nil))
	assert.Equal(http.StatusOK, rec.Code)
	assert.JSONEq(`{"published":4}`, rec.Body.String())
}
