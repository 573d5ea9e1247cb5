package market

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthenticate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/login.php", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "holo", r.PostForm.Get("name"))
		assert.Equal(t, "hunter2", r.PostForm.Get("password"))
		assert.Empty(t, r.PostForm.Get("email"))

		fmt.Fprint(w, `{"success":true,"result":{
			"id":42,"token":"tok-abc","name":"holo","email":"holo@example.com",
			"is_verified":true,"timestamp":1690000000
		}}`)
	})

	token, err := client.Authenticate(context.Background(), Credentials{Name: "holo", Password: "hunter2"})
	require.NoError(t, err)

	assert.Equal(t, "tok-abc", token.Token)
	assert.Equal(t, int64(42), token.UserID)
	assert.True(t, token.Verified)

	assert.True(t, client.Authenticated())
	assert.Equal(t, "tok-abc", client.Token())
}

func TestAuthenticateValidation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("incomplete credentials must not reach the network")
	})

	var confErr *ConfigurationError

	_, err := client.Authenticate(context.Background(), Credentials{Name: "holo"})
	assert.ErrorAs(t, err, &confErr)

	_, err = client.Authenticate(context.Background(), Credentials{Password: "hunter2"})
	assert.ErrorAs(t, err, &confErr)
}

func TestAuthenticateRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":false,"reason":"Invalid password"}`)
	})

	_, err := client.Authenticate(context.Background(), Credentials{Name: "holo", Password: "wrong"})
	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.False(t, client.Authenticated(), "failed login must not store a token")
}

func TestAuthenticateMissingToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"result":{"id":42,"name":"holo"}}`)
	})

	_, err := client.Authenticate(context.Background(), Credentials{Name: "holo", Password: "hunter2"})
	var schemaErr *SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "token", schemaErr.Field)
}

func TestRegisterValidation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("incomplete registration must not reach the network")
	})

	var confErr *ConfigurationError
	err := client.Register(context.Background(), "holo", "", "hunter2")
	assert.ErrorAs(t, err, &confErr)
}

func TestRegister(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/register.php", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "holo", r.PostForm.Get("name"))
		assert.Equal(t, "holo@example.com", r.PostForm.Get("email"))
		fmt.Fprint(w, `{"success":true}`)
	})

	err := client.Register(context.Background(), "holo", "holo@example.com", "hunter2")
	assert.NoError(t, err)
}

func TestChangePassword(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/change_password.php", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "old", r.PostForm.Get("current_password"))
		assert.Equal(t, "new", r.PostForm.Get("new_password"))
		fmt.Fprint(w, `{"success":true}`)
	})

	err := client.ChangePassword(context.Background(), "holo@example.com", "old", "new")
	assert.NoError(t, err)
}

func TestListReviews(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reviews.php", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "106", r.PostForm.Get("file_id"))

		fmt.Fprint(w, `{"success":true,"result":[
			{"id":1,"user_name":"alice","rating":5,"comment":"superb","timestamp":1690000000,"votes":{"total":4,"positive":4}},
			{"id":2,"user_name":"bob","rating":2,"comment":"crashed","timestamp":1690001000,"votes":{"total":1,"positive":0}}
		]}`)
	})

	reviews, err := client.ListReviews(context.Background(), 106, 0, 0)
	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, "alice", reviews[0].Author)
	assert.Equal(t, 0, reviews[0].Votes.Negative())
	assert.Equal(t, 1, reviews[1].Votes.Negative())
}

func TestSubmitReview(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		switch r.URL.Path {
		case "/login.php":
			fmt.Fprint(w, `{"success":true,"result":{"id":1,"token":"tok","name":"holo","email":"h@e.com","is_verified":true,"timestamp":1}}`)
		case "/review.php":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "tok", r.PostForm.Get("token"))
			assert.Equal(t, "106", r.PostForm.Get("file_id"))
			assert.Equal(t, "5", r.PostForm.Get("rating"))
			assert.Equal(t, "works great", r.PostForm.Get("comment"))
			fmt.Fprint(w, `{"success":true}`)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	_, err := client.Authenticate(context.Background(), Credentials{Name: "holo", Password: "x"})
	require.NoError(t, err)

	review, err := client.SubmitReview(context.Background(), 106, ReviewDraft{Rating: 5, Comment: "works great"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	// The ack carries no record; the confirmed review is synthesized from
	// the stored identity.
	assert.Equal(t, "holo", review.Author)
	assert.Equal(t, 5, review.Rating)
	assert.Equal(t, "works great", review.Comment)
	assert.NotZero(t, review.Timestamp)
}

func TestSubmitReviewEcho(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"result":{
			"id":77,"user_name":"holo","rating":4,"comment":"solid","timestamp":1690002000,
			"votes":{"total":0,"positive":0}
		}}`)
	}, WithToken("tok"))

	review, err := client.SubmitReview(context.Background(), 106, ReviewDraft{Rating: 4, Comment: "solid"})
	require.NoError(t, err)
	assert.Equal(t, int64(77), review.ID)
	assert.Equal(t, 1690002000, int(review.Timestamp))
}

func TestSubmitReviewRequiresToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("unauthenticated review must not reach the network")
	})

	_, err := client.SubmitReview(context.Background(), 106, ReviewDraft{Rating: 5})
	var authErr *AuthenticationError
	assert.ErrorAs(t, err, &authErr)
}

func TestSubmitReviewValidation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("invalid draft must not reach the network")
	}, WithToken("tok"))

	var confErr *ConfigurationError

	_, err := client.SubmitReview(context.Background(), 0, ReviewDraft{Rating: 3})
	assert.ErrorAs(t, err, &confErr)

	for _, rating := range []int{0, -1, 6} {
		_, err = client.SubmitReview(context.Background(), 106, ReviewDraft{Rating: rating})
		assert.ErrorAs(t, err, &confErr, "rating %d", rating)
	}
}

func TestVoteReview(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/review_vote.php", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "9", r.PostForm.Get("review_id"))
		assert.Equal(t, "1", r.PostForm.Get("rating"))
		fmt.Fprint(w, `{"success":true,"result":"Vote counted"}`)
	}, WithToken("tok"))

	ack, err := client.VoteReview(context.Background(), 9, true)
	require.NoError(t, err)
	assert.Equal(t, "Vote counted", ack)
}

func TestMessagingRequiresToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("unauthenticated messaging must not reach the network")
	})

	var authErr *AuthenticationError

	_, err := client.Dialogs(context.Background())
	assert.ErrorAs(t, err, &authErr)

	_, err = client.Messages(context.Background(), "alice")
	assert.ErrorAs(t, err, &authErr)

	err = client.SendMessage(context.Background(), "alice", "hi")
	assert.ErrorAs(t, err, &authErr)
}

func TestMessaging(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "tok", r.PostForm.Get("token"))

		switch r.URL.Path {
		case "/dialogs.php":
			fmt.Fprint(w, `{"success":true,"result":[
				{"dialog_user_name":"alice","timestamp":1690000000,"text":"hey",
				 "last_message_is_read":false,"last_message_user_name":"alice","last_message_user_id":7}
			]}`)
		case "/messages.php":
			assert.Equal(t, "alice", r.PostForm.Get("user_name"))
			fmt.Fprint(w, `{"success":true,"result":[
				{"text":"hey","user_name":"alice","timestamp":1690000000},
				{"text":"hello","user_name":"holo","timestamp":1690000100}
			]}`)
		case "/message.php":
			assert.Equal(t, "alice", r.PostForm.Get("user_name"))
			assert.Equal(t, "hello", r.PostForm.Get("text"))
			fmt.Fprint(w, `{"success":true}`)
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}, WithToken("tok"))

	ctx := context.Background()

	dialogs, err := client.Dialogs(ctx)
	require.NoError(t, err)
	require.Len(t, dialogs, 1)
	assert.Equal(t, "alice", dialogs[0].DialogUserName)
	assert.False(t, dialogs[0].LastMessageIsRead)

	messages, err := client.Messages(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "holo", messages[1].Author)

	require.NoError(t, client.SendMessage(ctx, "alice", "hello"))
}

func TestPublishValidation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("invalid draft must not reach the network")
	}, WithToken("tok"))

	var confErr *ConfigurationError

	err := client.Publish(context.Background(), AppDraft{})
	assert.ErrorAs(t, err, &confErr)

	err = client.Publish(context.Background(), AppDraft{
		Name:      "App",
		SourceURL: "http://files.example/app.lua",
		Path:      "app.lua",
		License:   License(99),
		Category:  CategoryApplications,
	})
	assert.ErrorAs(t, err, &confErr)
}

func TestPublishAndUpdate(t *testing.T) {
	draft := AppDraft{
		Name:         "Weather",
		SourceURL:    "http://files.example/weather/Main.lua",
		Path:         "Weather.app/Main.lua",
		Description:  "Forecast widget",
		License:      LicenseMIT,
		Category:     CategoryApplications,
		Dependencies: []int64{4},
		WhatsNew:     "Initial release",
	}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "tok", r.PostForm.Get("token"))
		assert.Equal(t, "Weather", r.PostForm.Get("name"))
		assert.Equal(t, "1", r.PostForm.Get("license_id"))
		assert.Equal(t, []string{"4"}, r.PostForm["dependencies"])

		switch r.URL.Path {
		case "/upload.php":
		case "/update.php":
			assert.Equal(t, "106", r.PostForm.Get("file_id"))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"success":true}`)
	}, WithToken("tok"))

	ctx := context.Background()
	require.NoError(t, client.Publish(ctx, draft))
	require.NoError(t, client.UpdateApp(ctx, 106, draft))
}

func TestDeleteApp(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/delete.php", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "106", r.PostForm.Get("file_id"))
		fmt.Fprint(w, `{"success":true}`)
	}, WithToken("tok"))

	assert.NoError(t, client.DeleteApp(context.Background(), 106))
}

func TestStatistics(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/statistics.php", r.URL.Path)
		fmt.Fprint(w, `{success = true, result = {
			users_count = 3197, publications_count = 405, reviews_count = 1316,
			messages_count = 10925, last_registered_user = "newbie",
			most_popular_user = "igor"
		}}`)
	})

	stats, err := client.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3197), stats.UsersCount)
	assert.Equal(t, "igor", stats.MostPopularUser)
}
