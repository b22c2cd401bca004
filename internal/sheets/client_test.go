package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClientWithOptions(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return client
}

func TestFindSheet(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v4/spreadsheets/sheet-id"))
		fmt.Fprint(w, `{"sheets":[
			{"properties":{"sheetId":0,"title":"Sheet1"}},
			{"properties":{"sheetId":7,"title":"Earnings"},"conditionalFormats":[{},{}]}
		]}`)
	})

	info, err := client.FindSheet(context.Background(), "sheet-id", "Earnings")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, int64(7), info.ID)
	assert.Equal(t, 2, info.ConditionalRules)

	missing, err := client.FindSheet(context.Background(), "sheet-id", "Payouts")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAddSheet(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, ":batchUpdate"))

		var body struct {
			Requests []struct {
				AddSheet struct {
					Properties struct {
						Title string `json:"title"`
					} `json:"properties"`
				} `json:"addSheet"`
			} `json:"requests"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Payouts", body.Requests[0].AddSheet.Properties.Title)

		fmt.Fprint(w, `{"replies":[{"addSheet":{"properties":{"sheetId":42,"title":"Payouts"}}}]}`)
	})

	id, err := client.AddSheet(context.Background(), "sheet-id", "Payouts")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestUpdateRangeUsesUserEntered(t *testing.T) {
	var gotOption string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotOption = r.URL.Query().Get("valueInputOption")
		fmt.Fprint(w, `{}`)
	})

	err := client.UpdateRange(context.Background(), "sheet-id", "'Earnings'!A1", [][]interface{}{{"=E5*G5"}})
	require.NoError(t, err)
	assert.Equal(t, "USER_ENTERED", gotOption)
}

func TestClientSurfacesAPIErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"error":{"code":403,"message":"denied"}}`)
	})

	err := client.ClearRange(context.Background(), "sheet-id", "'Earnings'")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to clear range")
}
