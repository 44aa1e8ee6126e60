package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/catalog"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/notify"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/saga"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/server"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/store"
	"github.com/Web-Star-Studio/daton-esg-insight-sub000/internal/store/memory"
)

const (
	testUserIdentifierConstant = "auditor-1"
	testOrganizationConstant   = "org-1"
	testStandardIdentifier     = "iso-9001"
	validAuditBodyConstant     = `{"title":"Quality audit","category_id":"quality","template_id":"internal","standard_ids":["iso-9001"],"sessions":[{"name":"Opening","item_ids":["q4.1","q5"]}]}`
)

type responseEnvelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Error   *server.ErrorBody `json:"error"`
}

type serverFixture struct {
	store    *memory.Store
	recorder *notify.Recorder
	server   *server.Server
}

func newServerFixture(testInstance *testing.T, defaultUserID string) serverFixture {
	testInstance.Helper()
	memoryStore := memory.New()
	require.NoError(testInstance, memoryStore.ImportSeed(context.Background(), catalog.Seed{
		Standards: []catalog.SeedStandard{{
			Standard: catalog.Standard{ID: testStandardIdentifier, Code: "ISO 9001", Name: "Quality"},
			Items: []catalog.StandardItem{
				{ID: "g4", ItemNumber: "4", Title: "Context", FieldType: catalog.FieldTypeGroup, Children: []catalog.StandardItem{
					{ID: "q4.1", ItemNumber: "4.1", Title: "Understanding the organization", FieldType: catalog.FieldTypeQuestion},
					{ID: "q4.2", ItemNumber: "4.2", Title: "Interested parties", FieldType: catalog.FieldTypeQuestion},
				}},
				{ID: "q5", ItemNumber: "5", Title: "Leadership", FieldType: catalog.FieldTypeQuestion},
			},
		}},
		Categories: []catalog.Category{{ID: "quality", Title: "Quality"}, {ID: "environment", Title: "Environment"}},
		Templates: []catalog.Template{
			{ID: "internal", Name: "Internal", CategoryID: "quality"},
			{ID: "emissions", Name: "Emissions", CategoryID: "environment"},
		},
		Users: []catalog.SeedUser{{ID: testUserIdentifierConstant, OrganizationID: testOrganizationConstant}},
	}))

	creation, sagaError := saga.New(saga.Dependencies{Organizations: memoryStore, Writer: memoryStore}, saga.Options{})
	require.NoError(testInstance, sagaError)

	recorder := &notify.Recorder{}
	httpServer, serverError := server.New(server.Dependencies{
		Repository:    memoryStore,
		Committer:     creation,
		Notifier:      recorder,
		DefaultUserID: defaultUserID,
	})
	require.NoError(testInstance, serverError)
	return serverFixture{store: memoryStore, recorder: recorder, server: httpServer}
}

func (fixture serverFixture) perform(testInstance *testing.T, method string, path string, body string, userID string) (int, responseEnvelope) {
	testInstance.Helper()
	request := httptest.NewRequest(method, path, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	if len(userID) > 0 {
		request.Header.Set(server.UserHeader, userID)
	}
	recorder := httptest.NewRecorder()
	fixture.server.Handler().ServeHTTP(recorder, request)

	var envelope responseEnvelope
	require.NoError(testInstance, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	return recorder.Code, envelope
}

func TestCatalogEndpoints(testInstance *testing.T) {
	fixture := newServerFixture(testInstance, "")

	statusCode, envelope := fixture.perform(testInstance, http.MethodGet, "/api/standards", "", "")
	require.Equal(testInstance, http.StatusOK, statusCode)
	var standards []catalog.Standard
	require.NoError(testInstance, json.Unmarshal(envelope.Data, &standards))
	require.Len(testInstance, standards, 1)

	statusCode, envelope = fixture.perform(testInstance, http.MethodGet, "/api/standards/iso-9001/items?search=understanding", "", "")
	require.Equal(testInstance, http.StatusOK, statusCode)
	var items server.StandardItemsResponse
	require.NoError(testInstance, json.Unmarshal(envelope.Data, &items))
	require.Equal(testInstance, 1, items.QuestionCount)
	require.Equal(testInstance, "g4", items.Items[0].ID)

	statusCode, envelope = fixture.perform(testInstance, http.MethodGet, "/api/standards/unknown/items", "", "")
	require.Equal(testInstance, http.StatusNotFound, statusCode)
	require.Equal(testInstance, server.ErrorCodeNotFound, envelope.Error.Code)

	statusCode, envelope = fixture.perform(testInstance, http.MethodGet, "/api/templates?category_id=environment", "", "")
	require.Equal(testInstance, http.StatusOK, statusCode)
	var templates []catalog.Template
	require.NoError(testInstance, json.Unmarshal(envelope.Data, &templates))
	require.Len(testInstance, templates, 1)
	require.Equal(testInstance, "emissions", templates[0].ID)
}

func TestCreateAuditAndReadBack(testInstance *testing.T) {
	fixture := newServerFixture(testInstance, "")

	statusCode, envelope := fixture.perform(testInstance, http.MethodPost, "/api/audits", validAuditBodyConstant, testUserIdentifierConstant)
	require.Equal(testInstance, http.StatusCreated, statusCode)
	var created server.CreatedAuditResponse
	require.NoError(testInstance, json.Unmarshal(envelope.Data, &created))
	require.Equal(testInstance, 2, created.TotalItems)
	require.Equal(testInstance, testOrganizationConstant, created.OrganizationID)

	statusCode, envelope = fixture.perform(testInstance, http.MethodGet, "/api/audits", "", testUserIdentifierConstant)
	require.Equal(testInstance, http.StatusOK, statusCode)
	var audits []store.AuditRecord
	require.NoError(testInstance, json.Unmarshal(envelope.Data, &audits))
	require.Len(testInstance, audits, 1)

	statusCode, envelope = fixture.perform(testInstance, http.MethodGet, "/api/audits/"+created.AuditID, "", testUserIdentifierConstant)
	require.Equal(testInstance, http.StatusOK, statusCode)
	var detail store.AuditDetail
	require.NoError(testInstance, json.Unmarshal(envelope.Data, &detail))
	require.Equal(testInstance, []string{"q4.1", "q5"}, detail.Sessions[0].ItemIDs)

	require.Len(testInstance, fixture.recorder.Created, 1)
	require.Equal(testInstance, 1, fixture.recorder.Invalidations)
}

func TestCreateAuditFailures(testInstance *testing.T) {
	testCases := []struct {
		name           string
		body           string
		userID         string
		expectedStatus int
		expectedCode   string
		expectedField  string
	}{
		{name: "malformed_body", body: `{"title":`, userID: testUserIdentifierConstant, expectedStatus: http.StatusBadRequest, expectedCode: server.ErrorCodeInvalidRequest},
		{name: "blank_title", body: `{"title":"  ","standard_ids":["iso-9001"]}`, userID: testUserIdentifierConstant, expectedStatus: http.StatusUnprocessableEntity, expectedCode: server.ErrorCodeValidation},
		{name: "no_standards", body: `{"title":"Audit"}`, userID: testUserIdentifierConstant, expectedStatus: http.StatusUnprocessableEntity, expectedCode: server.ErrorCodeValidation},
		{name: "template_outside_category", body: `{"title":"Audit","category_id":"quality","template_id":"emissions","standard_ids":["iso-9001"]}`, userID: testUserIdentifierConstant, expectedStatus: http.StatusUnprocessableEntity, expectedCode: server.ErrorCodeValidation, expectedField: "template_id"},
		{name: "item_outside_standards", body: `{"title":"Audit","standard_ids":["iso-9001"],"sessions":[{"name":"A","item_ids":["x9"]}]}`, userID: testUserIdentifierConstant, expectedStatus: http.StatusUnprocessableEntity, expectedCode: server.ErrorCodeValidation, expectedField: "sessions[0].item_ids"},
		{name: "blank_session_name", body: `{"title":"Audit","standard_ids":["iso-9001"],"sessions":[{"name":"   ","item_ids":["q5"]}]}`, userID: testUserIdentifierConstant, expectedStatus: http.StatusUnprocessableEntity, expectedCode: server.ErrorCodeValidation, expectedField: "sessions[0].name"},
		{name: "template_outside_category_with_blank_session", body: `{"title":"Audit","category_id":"environment","template_id":"internal","standard_ids":["iso-9001","iso-9001"," "],"sessions":[{"name":"   ","item_ids":["q5"]}]}`, userID: testUserIdentifierConstant, expectedStatus: http.StatusUnprocessableEntity, expectedCode: server.ErrorCodeValidation, expectedField: "template_id"},
		{name: "anonymous", body: validAuditBodyConstant, expectedStatus: http.StatusUnauthorized, expectedCode: server.ErrorCodeUnauthenticated},
		{name: "stranger", body: validAuditBodyConstant, userID: "nobody", expectedStatus: http.StatusForbidden, expectedCode: server.ErrorCodeForbidden},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			fixture := newServerFixture(subTest, "")
			statusCode, envelope := fixture.perform(subTest, http.MethodPost, "/api/audits", testCase.body, testCase.userID)
			require.Equal(subTest, testCase.expectedStatus, statusCode)
			require.False(subTest, envelope.Success)
			require.Equal(subTest, testCase.expectedCode, envelope.Error.Code)
			require.Equal(subTest, testCase.expectedField, envelope.Error.Field)
			require.Zero(subTest, fixture.store.AuditCount())
		})
	}
}

func TestCreateAuditDeduplicatesStandards(testInstance *testing.T) {
	fixture := newServerFixture(testInstance, testUserIdentifierConstant)

	body := `{"title":"Quality audit","standard_ids":["iso-9001"," iso-9001 "," "],"sessions":[{"name":" Opening ","item_ids":["q5"]}]}`
	statusCode, envelope := fixture.perform(testInstance, http.MethodPost, "/api/audits", body, "")
	require.Equal(testInstance, http.StatusCreated, statusCode)
	var created server.CreatedAuditResponse
	require.NoError(testInstance, json.Unmarshal(envelope.Data, &created))

	detail, detailError := fixture.store.GetAudit(context.Background(), created.AuditID)
	require.NoError(testInstance, detailError)
	require.Equal(testInstance, []string{testStandardIdentifier}, detail.StandardIDs)
	require.Equal(testInstance, "Opening", detail.Sessions[0].Name)
}

func TestCreateAuditPartialWriteReportsAuditID(testInstance *testing.T) {
	fixture := newServerFixture(testInstance, testUserIdentifierConstant)
	fixture.store.FailOn(memory.OperationInsertSession, 1, errors.New("connection reset"))

	statusCode, envelope := fixture.perform(testInstance, http.MethodPost, "/api/audits", validAuditBodyConstant, "")
	require.Equal(testInstance, http.StatusBadGateway, statusCode)
	require.Equal(testInstance, server.ErrorCodePartialWrite, envelope.Error.Code)
	require.NotEmpty(testInstance, envelope.Error.AuditID)
	require.Equal(testInstance, 1, fixture.store.AuditCount())
	require.Len(testInstance, fixture.recorder.Failures, 1)
}

func TestGetAuditHidesOtherOrganizations(testInstance *testing.T) {
	fixture := newServerFixture(testInstance, "")
	fixture.store.SetUserOrganization("auditor-2", "org-2")

	_, envelope := fixture.perform(testInstance, http.MethodPost, "/api/audits", validAuditBodyConstant, testUserIdentifierConstant)
	var created server.CreatedAuditResponse
	require.NoError(testInstance, json.Unmarshal(envelope.Data, &created))

	statusCode, _ := fixture.perform(testInstance, http.MethodGet, "/api/audits/"+created.AuditID, "", "auditor-2")
	require.Equal(testInstance, http.StatusNotFound, statusCode)

	statusCode, _ = fixture.perform(testInstance, http.MethodGet, "/api/audits/missing", "", testUserIdentifierConstant)
	require.Equal(testInstance, http.StatusNotFound, statusCode)
}

func TestNotificationsStreamCreationEvents(testInstance *testing.T) {
	fixture := newServerFixture(testInstance, testUserIdentifierConstant)
	httpServer := httptest.NewServer(fixture.server.Handler())
	defer httpServer.Close()

	socketURL := "ws" + strings.TrimPrefix(httpServer.URL, "http") + "/ws/notifications"
	connection, _, dialError := websocket.DefaultDialer.Dial(socketURL, nil)
	require.NoError(testInstance, dialError)
	defer connection.Close()

	require.Eventually(testInstance, func() bool {
		return fixture.server.Hub().SubscriberCount() == 1
	}, time.Second, 10*time.Millisecond)

	response, postError := http.Post(httpServer.URL+"/api/audits", "application/json", bytes.NewBufferString(validAuditBodyConstant))
	require.NoError(testInstance, postError)
	require.NoError(testInstance, response.Body.Close())
	require.Equal(testInstance, http.StatusCreated, response.StatusCode)

	require.NoError(testInstance, connection.SetReadDeadline(time.Now().Add(2*time.Second)))
	var invalidated server.Event
	require.NoError(testInstance, connection.ReadJSON(&invalidated))
	require.Equal(testInstance, server.EventAuditListInvalidated, invalidated.Type)

	var created server.Event
	require.NoError(testInstance, connection.ReadJSON(&created))
	require.Equal(testInstance, server.EventAuditCreated, created.Type)
	require.Equal(testInstance, "Quality audit", created.Audit.Title)
	require.Equal(testInstance, 2, created.Audit.TotalItems)
}

func TestNewRequiresDependencies(testInstance *testing.T) {
	_, serverError := server.New(server.Dependencies{})
	require.Error(testInstance, serverError)
}
