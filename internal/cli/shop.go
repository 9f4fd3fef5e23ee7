package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/0x6d61/storefront/internal/domain"
	"github.com/0x6d61/storefront/internal/router"
	"github.com/0x6d61/storefront/internal/tui"
	"github.com/0x6d61/storefront/internal/view"
)

func newShopCmd() *cobra.Command {
	toasts := &tui.Toasts{}
	return &cobra.Command{
		Use:   "shop",
		Short: "Open the interactive shell",
		Args:  cobra.NoArgs,
		RunE: withEnv(envOptions{notifier: toasts, quietLog: true, skipRefresh: true},
			func(cmd *cobra.Command, args []string, e *env) error {
				return tui.Run(e.ctx, e.app, toasts)
			}),
	}
}

func newViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "view [route]",
		Short:     "Render a page (home, products, cart, orders, admin, about, contact)",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: routeNames(),
		RunE: withEnv(envOptions{}, func(cmd *cobra.Command, args []string, e *env) error {
			route := string(router.Home)
			if len(args) == 1 {
				route = args[0]
			}
			return e.show(route)
		}),
	}
}

func routeNames() []string {
	out := make([]string, len(router.All))
	for i, r := range router.All {
		out[i] = string(r)
	}
	return out
}

// ---------------------------------------------------------------------------
// Account
// ---------------------------------------------------------------------------

func newLoginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session",
		Args:  cobra.NoArgs,
		RunE: withEnv(envOptions{skipRefresh: true}, func(cmd *cobra.Command, args []string, e *env) error {
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			if err := e.app.Login(e.ctx, email, password); err != nil {
				return e.fail(view.FormLogin, err)
			}
			return nil
		}),
	}
	cmd.Flags().StringP("email", "e", "", "Account email")
	cmd.Flags().StringP("password", "p", "", "Account password")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the signed-in session",
		Args:  cobra.NoArgs,
		RunE: withEnv(envOptions{skipRefresh: true}, func(cmd *cobra.Command, args []string, e *env) error {
			e.app.Logout(e.ctx)
			return nil
		}),
	}
}

func newRegisterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: withEnv(envOptions{skipRefresh: true}, func(cmd *cobra.Command, args []string, e *env) error {
			in := registerInput(cmd)
			if _, err := e.app.Register(e.ctx, in); err != nil {
				return e.fail(view.FormRegister, err)
			}
			return nil
		}),
	}
	addRegisterFlags(cmd)
	return cmd
}

func addRegisterFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "Full name")
	cmd.Flags().StringP("email", "e", "", "Email")
	cmd.Flags().StringP("password", "p", "", "Password")
	cmd.Flags().String("role", string(domain.RoleUser), "Role (User, Admin)")
}

func registerInput(cmd *cobra.Command) domain.RegisterInput {
	name, _ := cmd.Flags().GetString("name")
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	role, _ := cmd.Flags().GetString("role")
	return domain.RegisterInput{Name: name, Email: email, Password: password, Role: domain.ParseRole(role)}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: withEnv(envOptions{skipRefresh: true}, func(cmd *cobra.Command, args []string, e *env) error {
			sess := e.app.Session()
			if sess == nil {
				fmt.Fprintf(e.out, "Not signed in (guest %s)\n", e.client.GuestID())
				return nil
			}
			fmt.Fprintf(e.out, "%s <%s> role=%s\n", sess.User.Name, sess.User.Email, sess.User.Role)
			return nil
		}),
	}
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

func newProductsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List products, optionally filtered",
		Args:  cobra.NoArgs,
		RunE: withEnv(envOptions{}, func(cmd *cobra.Command, args []string, e *env) error {
			search, _ := cmd.Flags().GetString("search")
			category, _ := cmd.Flags().GetString("category")
			if err := e.app.Search(e.ctx, search, category); err != nil {
				return e.fail("", err)
			}
			return e.show(string(router.Products))
		}),
	}
	cmd.Flags().StringP("search", "s", "", "Search term")
	cmd.Flags().StringP("category", "c", "", "Category")
	return cmd
}

// ---------------------------------------------------------------------------
// Cart
// ---------------------------------------------------------------------------

// cartAction builds a cart subcommand that runs fn and renders the cart.
func cartAction(use, short string, args cobra.PositionalArgs, fn func(e *env, args []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: withEnv(envOptions{}, func(cmd *cobra.Command, args []string, e *env) error {
			if err := fn(e, args); err != nil {
				return e.fail("", err)
			}
			return e.show(string(router.Cart))
		}),
	}
}

func newCartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and change the cart",
		Args:  cobra.NoArgs,
		RunE: withEnv(envOptions{}, func(cmd *cobra.Command, args []string, e *env) error {
			return e.show(string(router.Cart))
		}),
	}

	add := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(envOptions{}, func(cmd *cobra.Command, args []string, e *env) error {
			qty, _ := cmd.Flags().GetInt("quantity")
			if err := e.app.AddQuantity(e.ctx, args[0], qty); err != nil {
				return e.fail("", err)
			}
			return e.show(string(router.Cart))
		}),
	}
	add.Flags().IntP("quantity", "q", 1, "Quantity")

	cmd.AddCommand(
		add,
		cartAction("inc <line-id>", "Increase a line by one", cobra.ExactArgs(1), func(e *env, args []string) error {
			return e.app.Increment(e.ctx, args[0])
		}),
		cartAction("dec <line-id>", "Decrease a line by one (removes it at zero)", cobra.ExactArgs(1), func(e *env, args []string) error {
			return e.app.Decrement(e.ctx, args[0])
		}),
		cartAction("set <line-id> <quantity>", "Set the quantity of a line", cobra.ExactArgs(2), func(e *env, args []string) error {
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("quantity must be a whole number: %q", args[1])
			}
			return e.app.SetQuantity(e.ctx, args[0], qty)
		}),
		cartAction("remove <line-id>", "Remove a line", cobra.ExactArgs(1), func(e *env, args []string) error {
			return e.app.RemoveLine(e.ctx, args[0])
		}),
		cartAction("clear", "Empty the cart", cobra.NoArgs, func(e *env, args []string) error {
			return e.app.ClearCart(e.ctx)
		}),
	)
	return cmd
}

func newCheckoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the cart",
		Args:  cobra.NoArgs,
		RunE: withEnv(envOptions{}, func(cmd *cobra.Command, args []string, e *env) error {
			// Fields left empty fall back to the signed-in user.
			f := e.app.State().Checkout()
			if v, _ := cmd.Flags().GetString("name"); v != "" {
				f.Name = v
			}
			if v, _ := cmd.Flags().GetString("email"); v != "" {
				f.Email = v
			}
			if v, _ := cmd.Flags().GetString("address"); v != "" {
				f.Address = v
			}
			order, err := e.app.Checkout(e.ctx, f)
			if err != nil {
				return e.fail(view.FormCheckout, err)
			}
			if e.app.Session() == nil {
				fmt.Fprintf(e.out, "Keep your order number %s to follow it up.\n", order.OrderNumber)
				return nil
			}
			return e.render()
		}),
	}
	cmd.Flags().String("name", "", "Customer name")
	cmd.Flags().String("email", "", "Customer email")
	cmd.Flags().String("address", "", "Shipping address")
	return cmd
}

func newOrdersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "List your orders",
		Args:  cobra.NoArgs,
		RunE: withEnv(envOptions{}, func(cmd *cobra.Command, args []string, e *env) error {
			return e.show(string(router.Orders))
		}),
	}
}

func newContactCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Send a message to the shop",
		Args:  cobra.NoArgs,
		RunE: withEnv(envOptions{skipRefresh: true}, func(cmd *cobra.Command, args []string, e *env) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			message, _ := cmd.Flags().GetString("message")
			if err := e.app.SubmitContact(name, email, message); err != nil {
				return e.fail(view.FormContact, err)
			}
			return nil
		}),
	}
	cmd.Flags().String("name", "", "Your name")
	cmd.Flags().String("email", "", "Your email")
	cmd.Flags().StringP("message", "m", "", "Message")
	return cmd
}
