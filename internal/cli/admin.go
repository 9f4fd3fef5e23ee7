package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/0x6d61/storefront/internal/app"
	"github.com/0x6d61/storefront/internal/domain"
	"github.com/0x6d61/storefront/internal/router"
	"github.com/0x6d61/storefront/internal/view"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage products, orders and users (admin only)",
		Args:  cobra.NoArgs,
		RunE: withEnv(envOptions{skipRefresh: true}, func(cmd *cobra.Command, args []string, e *env) error {
			return e.show(string(router.Admin))
		}),
	}

	product := &cobra.Command{Use: "product", Short: "Create, update or delete a product"}
	product.AddCommand(newProductCreateCmd(), newProductUpdateCmd(), newProductDeleteCmd())

	order := &cobra.Command{Use: "order", Short: "Inspect and update orders"}
	order.AddCommand(newOrderViewCmd(), newOrderStatusCmd())

	user := &cobra.Command{Use: "user", Short: "Manage users"}
	user.AddCommand(newUserCreateCmd())

	cmd.AddCommand(product, order, user)
	return cmd
}

// requireAdminSession fails early so no admin request leaves without a
// token.
func requireAdminSession(e *env) error {
	if !e.app.Session().IsAdmin() {
		fmt.Fprintf(e.out, "[!] %s\n", domain.ErrAdminRequired.Message)
		return reportedError{domain.ErrAdminRequired}
	}
	return nil
}

func addProductFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "Product name")
	cmd.Flags().String("description", "", "Description")
	cmd.Flags().String("price", "", "Price (e.g. 19.99)")
	cmd.Flags().String("stock", "", "Units in stock")
	cmd.Flags().String("category", "", "Category")
	cmd.Flags().String("image", "", "Image URL")
}

// productFields returns the form values, starting from base and replacing
// the fields whose flags were set.
func productFields(cmd *cobra.Command, base domain.Product) []string {
	values := map[string]string{
		"name":        base.Name,
		"description": base.Description,
		"category":    base.Category,
		"image":       base.Image,
	}
	if base.ID != "" {
		values["price"] = base.Price.String()
		values["stock"] = strconv.Itoa(base.Stock)
	}
	order := []string{"name", "description", "price", "stock", "category", "image"}
	out := make([]string, len(order))
	for i, name := range order {
		if cmd.Flags().Changed(name) {
			values[name], _ = cmd.Flags().GetString(name)
		}
		out[i] = values[name]
	}
	return out
}

func saveProduct(cmd *cobra.Command, e *env, id string, base domain.Product) error {
	v := productFields(cmd, base)
	in, err := domain.ParseProductInput(v[0], v[1], v[2], v[3], v[4], v[5])
	if err != nil {
		fmt.Fprintf(e.out, "[!] %s\n", app.UserMessage(err))
		return reportedError{err}
	}
	if _, err := e.app.SaveProduct(e.ctx, id, in); err != nil {
		return e.fail(view.FormProduct, err)
	}
	return e.show(string(router.Admin))
}

func newProductCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a product",
		Args:  cobra.NoArgs,
		RunE: withEnv(envOptions{skipRefresh: true}, func(cmd *cobra.Command, args []string, e *env) error {
			if err := requireAdminSession(e); err != nil {
				return err
			}
			if err := e.app.NewProduct(); err != nil {
				return e.fail("", err)
			}
			return saveProduct(cmd, e, "", domain.Product{})
		}),
	}
	addProductFlags(cmd)
	return cmd
}

func newProductUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <product-id>",
		Short: "Update a product; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(envOptions{skipRefresh: true}, func(cmd *cobra.Command, args []string, e *env) error {
			if err := requireAdminSession(e); err != nil {
				return err
			}
			if err := e.app.EditProduct(e.ctx, args[0]); err != nil {
				return e.fail("", err)
			}
			base := e.app.State().ProductForm()
			if base == nil {
				return reportedError{fmt.Errorf("product %s not loaded", args[0])}
			}
			return saveProduct(cmd, e, args[0], *base)
		}),
	}
	addProductFlags(cmd)
	return cmd
}

func newProductDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <product-id>",
		Short: "Delete a product",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(envOptions{skipRefresh: true}, func(cmd *cobra.Command, args []string, e *env) error {
			if err := requireAdminSession(e); err != nil {
				return err
			}
			if err := e.app.DeleteProduct(e.ctx, args[0]); err != nil {
				return e.fail("", err)
			}
			return e.show(string(router.Admin))
		}),
	}
}

func newOrderViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view <order-id>",
		Short: "Show an order's details",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(envOptions{skipRefresh: true}, func(cmd *cobra.Command, args []string, e *env) error {
			if err := requireAdminSession(e); err != nil {
				return err
			}
			e.app.Navigate(e.ctx, string(router.Admin))
			if _, err := e.app.ViewOrder(e.ctx, args[0]); err != nil {
				return e.fail("", err)
			}
			return e.render()
		}),
	}
}

func newOrderStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "status <order-id> <status>",
		Short:     "Set an order's status (pending, processing, completed, cancelled)",
		Args:      cobra.ExactArgs(2),
		ValidArgs: statusNames(),
		RunE: withEnv(envOptions{skipRefresh: true}, func(cmd *cobra.Command, args []string, e *env) error {
			status := domain.OrderStatus(args[1])
			if !status.Valid() {
				return fmt.Errorf("unknown order status %q", args[1])
			}
			if err := requireAdminSession(e); err != nil {
				return err
			}
			e.app.Navigate(e.ctx, string(router.Admin))
			if _, err := e.app.UpdateOrderStatus(e.ctx, args[0], status); err != nil {
				return e.fail("", err)
			}
			return e.render()
		}),
	}
}

func statusNames() []string {
	out := make([]string, len(domain.OrderStatuses))
	for i, s := range domain.OrderStatuses {
		out[i] = string(s)
	}
	return out
}

func newUserCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user without leaving the admin session",
		Args:  cobra.NoArgs,
		RunE: withEnv(envOptions{skipRefresh: true}, func(cmd *cobra.Command, args []string, e *env) error {
			if err := requireAdminSession(e); err != nil {
				return err
			}
			if _, err := e.app.CreateUser(e.ctx, registerInput(cmd)); err != nil {
				return e.fail(view.FormRegister, err)
			}
			return nil
		}),
	}
	addRegisterFlags(cmd)
	return cmd
}
