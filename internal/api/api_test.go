package api_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0x6d61/storefront/internal/api"
	"github.com/0x6d61/storefront/internal/domain"
	"github.com/0x6d61/storefront/internal/testutil"
	"github.com/0x6d61/storefront/internal/transport"
)

func newClient(t *testing.T, srv *testutil.ShopServer, opts ...api.Option) *api.Client {
	t.Helper()
	tc, err := transport.NewClient(transport.ClientOptions{Timeout: 5 * time.Second})
	require.NoError(t, err)
	c, err := api.New(tc, srv.URL, opts...)
	require.NoError(t, err)
	return c
}

func TestNew_InvalidBaseURL(t *testing.T) {
	tc, err := transport.NewClient(transport.ClientOptions{})
	require.NoError(t, err)
	_, err = api.New(tc, "localhost")
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// Auth
// ---------------------------------------------------------------------------

func TestAuth_Login(t *testing.T) {
	srv := testutil.NewShopServer()
	defer srv.Close()
	c := newClient(t, srv)
	ctx := context.Background()

	assert.False(t, c.Auth.IsAuthenticated())

	sess, err := c.Auth.Login(ctx, testutil.UserEmail, testutil.UserPassword)
	require.NoError(t, err)
	assert.Equal(t, testutil.UserName, sess.User.Name)
	assert.Equal(t, domain.RoleUser, sess.User.Role)
	assert.True(t, c.Auth.IsAuthenticated())
	assert.False(t, c.Auth.IsAdmin())

	c.Auth.Logout()
	assert.Nil(t, c.Auth.Current())
}

func TestAuth_LoginBadCredentials(t *testing.T) {
	srv := testutil.NewShopServer()
	defer srv.Close()
	c := newClient(t, srv)

	_, err := c.Auth.Login(context.Background(), testutil.UserEmail, "nope")
	require.Error(t, err)
	assert.True(t, domain.IsAuth(err), "want AuthError, got %T: %v", err, err)
	assert.Contains(t, err.Error(), "Invalid email or password")
	assert.False(t, c.Auth.IsAuthenticated())
}

func TestAuth_LoginValidationSkipsNetwork(t *testing.T) {
	srv := testutil.NewShopServer()
	defer srv.Close()
	c := newClient(t, srv)

	_, err := c.Auth.Login(context.Background(), "", "x")
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Zero(t, srv.CountRequests("", "/api"))
}

func TestAuth_Register(t *testing.T) {
	srv := testutil.NewShopServer()
	defer srv.Close()
	ctx := context.Background()

	t.Run("self registration logs in", func(t *testing.T) {
		c := newClient(t, srv)
		u, err := c.Auth.Register(ctx, domain.RegisterInput{
			Name: "Grace", Email: "grace@shop.test", Password: "cobol60",
		}, false)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleUser, u.Role)
		require.NotNil(t, c.Auth.Current())
		assert.Equal(t, "grace@shop.test", c.Auth.Current().User.Email)
	})

	t.Run("short password rejected locally", func(t *testing.T) {
		c := newClient(t, srv)
		_, err := c.Auth.Register(ctx, domain.RegisterInput{
			Name: "X", Email: "x@shop.test", Password: "123",
		}, false)
		require.Error(t, err)
		assert.Equal(t, "Password must be at least 6 characters", err.Error())
	})

	t.Run("admin creates admin and keeps session", func(t *testing.T) {
		c := newClient(t, srv)
		_, err := c.Auth.Login(ctx, testutil.AdminEmail, testutil.AdminPassword)
		require.NoError(t, err)

		u, err := c.Auth.Register(ctx, domain.RegisterInput{
			Name: "Ops", Email: "ops@shop.test", Password: "secret99", Role: domain.RoleAdmin,
		}, true)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAdmin, u.Role)
		assert.Equal(t, testutil.AdminEmail, c.Auth.Current().User.Email)
	})

	t.Run("non-admin cannot create admin", func(t *testing.T) {
		c := newClient(t, srv)
		_, err := c.Auth.Register(ctx, domain.RegisterInput{
			Name: "Eve", Email: "eve@shop.test", Password: "secret99", Role: domain.RoleAdmin,
		}, false)
		require.Error(t, err)
		assert.True(t, domain.IsPermission(err))
	})
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

func TestProducts_ListAndFilter(t *testing.T) {
	srv := testutil.NewShopServer()
	defer srv.Close()
	c := newClient(t, srv)
	ctx := context.Background()

	all, err := c.Products.List(ctx, api.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	furniture, err := c.Products.List(ctx, api.Filter{Category: "furniture"})
	require.NoError(t, err)
	assert.Len(t, furniture, 2)

	lamps, err := c.Products.List(ctx, api.Filter{Search: "lamp"})
	require.NoError(t, err)
	require.Len(t, lamps, 1)
	assert.True(t, decimal.RequireFromString("19.50").Equal(lamps[0].Price))

	got, err := c.Products.Get(ctx, lamps[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Desk Lamp", got.Name)
}

func TestProducts_GetNotFound(t *testing.T) {
	srv := testutil.NewShopServer()
	defer srv.Close()
	c := newClient(t, srv)

	_, err := c.Products.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, domain.IsNotFound(err))
	assert.Contains(t, err.Error(), `product "missing" not found`)
}

func TestProducts_AdminCRUD(t *testing.T) {
	srv := testutil.NewShopServer()
	defer srv.Close()
	c := newClient(t, srv)
	ctx := context.Background()

	in := domain.ProductInput{
		Name: "Bookshelf", Description: "Oak", Price: decimal.NewFromInt(120),
		Stock: 0, Category: "furniture",
	}

	_, err := c.Products.Create(ctx, in)
	require.Error(t, err)
	assert.True(t, domain.IsAuth(err), "anonymous create should be unauthorized: %v", err)

	_, err = c.Auth.Login(ctx, testutil.AdminEmail, testutil.AdminPassword)
	require.NoError(t, err)

	created, err := c.Products.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, 0, created.Stock)

	in.Stock = 4
	updated, err := c.Products.Update(ctx, created.ID, in)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Stock)

	require.NoError(t, c.Products.Delete(ctx, created.ID))
	_, err = c.Products.Get(ctx, created.ID)
	assert.True(t, domain.IsNotFound(err))
}

func TestProducts_ZeroPriceRejectedBeforeRequest(t *testing.T) {
	srv := testutil.NewShopServer()
	defer srv.Close()
	c := newClient(t, srv)

	_, err := c.Products.Create(context.Background(), domain.ProductInput{
		Name: "Freebie", Description: "x", Price: decimal.Zero, Stock: 1, Category: "misc",
	})
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Zero(t, srv.CountRequests(http.MethodPost, "/api/products"))
}

// ---------------------------------------------------------------------------
// Cart
// ---------------------------------------------------------------------------

func TestCart_GuestLifecycle(t *testing.T) {
	srv := testutil.NewShopServer()
	defer srv.Close()
	c := newClient(t, srv, api.WithGuestID("guest-42"))
	ctx := context.Background()

	products := srv.Products()
	desk, lamp := products[0], products[1]

	cart, err := c.Cart.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	cart, err = c.Cart.AddItem(ctx, desk.ID, 1)
	require.NoError(t, err)
	cart, err = c.Cart.AddItem(ctx, lamp.ID, 2)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.True(t, cart.Total.Equal(cart.ComputedTotal()), "total %s != computed %s", cart.Total, cart.ComputedTotal())
	assert.Equal(t, "288.99", cart.Total.StringFixed(2))

	lampLine := cart.Items[1]
	assert.Equal(t, "Desk Lamp", lampLine.Product.Name)

	cart, err = c.Cart.UpdateItem(ctx, lampLine.ID, 3)
	require.NoError(t, err)
	line, ok := cart.Line(lampLine.ID)
	require.True(t, ok)
	assert.Equal(t, 3, line.Quantity)

	cart, err = c.Cart.RemoveItem(ctx, lampLine.ID)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)

	cart, err = c.Cart.Clear(ctx)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	for _, r := range srv.Requests() {
		assert.Equal(t, "guest-42", r.Guest, "%s %s", r.Method, r.Path)
	}
}

func TestCart_InsufficientStock(t *testing.T) {
	srv := testutil.NewShopServer()
	defer srv.Close()
	c := newClient(t, srv, api.WithGuestID("g"))

	soldOut := srv.Products()[2]
	_, err := c.Cart.AddItem(context.Background(), soldOut.ID, 1)
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Contains(t, err.Error(), "Insufficient stock")
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

func TestOrders_PlaceAndManage(t *testing.T) {
	srv := testutil.NewShopServer()
	defer srv.Close()
	ctx := context.Background()

	shopper := newClient(t, srv)
	_, err := shopper.Auth.Login(ctx, testutil.UserEmail, testutil.UserPassword)
	require.NoError(t, err)

	_, err = shopper.Orders.Create(ctx, testutil.UserName, testutil.UserEmail)
	require.Error(t, err, "empty cart must be rejected by the server")

	_, err = shopper.Cart.AddItem(ctx, srv.Products()[1].ID, 2)
	require.NoError(t, err)
	order, err := shopper.Orders.Create(ctx, testutil.UserName, testutil.UserEmail)
	require.NoError(t, err)
	assert.Equal(t, "ORD-0001", order.OrderNumber)
	assert.Equal(t, domain.StatusPending, order.Status)
	assert.Equal(t, "39.00", order.Total.StringFixed(2))

	history, err := shopper.Orders.ListByCustomerEmail(ctx, testutil.UserEmail)
	require.NoError(t, err)
	require.Len(t, history, 1)

	_, err = shopper.Orders.List(ctx)
	assert.True(t, domain.IsPermission(err))

	admin := newClient(t, srv)
	_, err = admin.Auth.Login(ctx, testutil.AdminEmail, testutil.AdminPassword)
	require.NoError(t, err)

	all, err := admin.Orders.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	updated, err := admin.Orders.UpdateStatus(ctx, order.ID, domain.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, updated.Status)

	_, err = admin.Orders.UpdateStatus(ctx, order.ID, "shipped")
	assert.True(t, domain.IsValidation(err))

	got, err := admin.Orders.Get(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
}

// ---------------------------------------------------------------------------
// Error mapping
// ---------------------------------------------------------------------------

func TestServerAndNetworkErrors(t *testing.T) {
	srv := testutil.NewShopServer()
	c := newClient(t, srv)
	ctx := context.Background()

	srv.FailWith(http.MethodGet, "/api/products", http.StatusInternalServerError)
	_, err := c.Products.List(ctx, api.Filter{})
	var se *domain.ServerError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.StatusCode)

	srv.Close()
	_, err = c.Products.List(ctx, api.Filter{})
	var ne *domain.NetworkError
	assert.ErrorAs(t, err, &ne)
}
