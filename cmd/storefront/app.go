package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nawaweeb/storefront/internal/auth"
	"github.com/nawaweeb/storefront/internal/cart"
	"github.com/nawaweeb/storefront/internal/catalog"
	"github.com/nawaweeb/storefront/internal/checkout"
	"github.com/nawaweeb/storefront/internal/orders"
	"github.com/nawaweeb/storefront/internal/wishlist"
	"github.com/nawaweeb/storefront/pkg/logger"
	"github.com/nawaweeb/storefront/pkg/money"
)

type app struct {
	basket   *cart.Reconciler
	view     *cart.View
	catalog  catalog.Service
	admin    catalog.Admin
	orders   orders.Service
	wishlist wishlist.Service
	auth     auth.Service
	orchestr *checkout.Orchestrator
	logg     *logger.Logger
	out      io.Writer
}

const usage = `usage: storefront <command> [args]

  products                       list the catalog
  product <id>                   show one product with variants
  cart                           show the cart
  cart-add <productId> [flags]   add a product to the cart
  cart-inc <productId> [variantId]
  cart-dec <productId> [variantId]
  cart-rm <productId> [variantId]
  checkout [flags]               pay for the cart
  login <email> <password>
  register <name> <email> <password>
  logout
  me                             verify the stored session
  orders                         order history
  orders-all                     every order (admin)
  order-status <id> <status>     update an order (admin)
  product-add [flags]            create a product (admin)
  product-update <id> [flags]    rewrite a product (admin)
  product-rm <id>                delete a product (admin)
  wishlist                       list saved products
  wish <productId>               toggle a saved product
`

func (a *app) run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return 2
	}
	if err := a.basket.Load(ctx); err != nil {
		a.logg.Error(ctx, "loading cart", err)
	}

	var err error
	switch cmd, rest := args[0], args[1:]; cmd {
	case "products":
		err = a.listProducts(ctx)
	case "product":
		err = a.showProduct(ctx, rest)
	case "cart":
		err = a.showCart()
	case "cart-add":
		err = a.addToCart(ctx, rest)
	case "cart-inc":
		err = a.adjustCart(ctx, rest, a.view.Increment)
	case "cart-dec":
		err = a.adjustCart(ctx, rest, a.view.Decrement)
	case "cart-rm":
		err = a.adjustCart(ctx, rest, a.view.Remove)
	case "checkout":
		err = a.checkout(ctx, rest)
	case "login":
		err = a.login(ctx, rest)
	case "register":
		err = a.register(ctx, rest)
	case "logout":
		err = a.auth.Logout(ctx)
	case "me":
		err = a.whoAmI(ctx)
	case "orders":
		err = a.orderHistory(ctx)
	case "orders-all":
		err = a.allOrders(ctx)
	case "order-status":
		err = a.setOrderStatus(ctx, rest)
	case "product-add":
		err = a.saveProduct(ctx, "", rest)
	case "product-update":
		if len(rest) < 1 {
			err = fmt.Errorf("usage: product-update <id> [flags]")
		} else {
			err = a.saveProduct(ctx, rest[0], rest[1:])
		}
	case "product-rm":
		err = a.deleteProduct(ctx, rest)
	case "wishlist":
		err = a.showWishlist(ctx)
	case "wish":
		err = a.toggleWish(ctx, rest)
	default:
		fmt.Fprint(a.out, usage)
		return 2
	}
	if err != nil {
		a.logg.Error(ctx, "command failed", err)
		fmt.Fprintf(a.out, "error: %v\n", err)
		return 1
	}
	return 0
}

func (a *app) listProducts(ctx context.Context) error {
	products, err := a.catalog.List(ctx)
	if err != nil {
		return err
	}
	for _, p := range products {
		fmt.Fprintf(a.out, "%s  %-30s %s  stock %d\n", p.ID, p.Title, p.Price.Format(), p.TotalStock())
	}
	return nil
}

func (a *app) showProduct(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: product <id>")
	}
	p, err := a.catalog.Get(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s\n%s\n%s\n", p.Title, p.Price.Format(), p.Description)
	for _, v := range p.Variants {
		marker := " "
		if def, ok := p.DefaultVariant(); ok && def.ID == v.ID {
			marker = "*"
		}
		fmt.Fprintf(a.out, "%s %s  size %-4s %s  stock %d\n", marker, v.ID, v.Size, v.Price.Format(), v.StockQuantity)
	}
	return nil
}

func (a *app) showCart() error {
	lines := a.view.Lines()
	if len(lines) == 0 {
		fmt.Fprintln(a.out, "cart is empty")
		return nil
	}
	for _, line := range lines {
		tier := ""
		if line.IsHandmade {
			tier = "  handmade"
		}
		fmt.Fprintf(a.out, "%s/%s  %-30s size %-4s x%d  %s%s\n",
			line.ProductID, line.VariantID, line.Title, line.Size, line.Qty, line.LineTotal().Format(), tier)
	}
	fmt.Fprintf(a.out, "subtotal %s\n", a.view.Subtotal().Format())
	return nil
}

func (a *app) addToCart(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cart-add", flag.ContinueOnError)
	fs.SetOutput(a.out)
	variantID := fs.String("variant", "", "variant id (defaults to first in stock)")
	qty := fs.Int("qty", 1, "quantity")
	handmade := fs.Bool("handmade", false, "handmade pricing tier")
	if len(args) < 1 {
		return fmt.Errorf("usage: cart-add <productId> [-variant id] [-qty n] [-handmade]")
	}
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	product, err := a.catalog.Get(ctx, args[0])
	if err != nil {
		return err
	}
	var variant *catalog.Variant
	if *variantID != "" {
		for i := range product.Variants {
			if product.Variants[i].ID == *variantID {
				variant = &product.Variants[i]
				break
			}
		}
		if variant == nil {
			return fmt.Errorf("product %s has no variant %s", product.ID, *variantID)
		}
	} else if def, ok := product.DefaultVariant(); ok {
		variant = &def
	}

	line, err := catalog.BuildLine(*product, variant, *qty, *handmade)
	if err != nil {
		return err
	}
	if err := a.basket.Add(ctx, line); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "added %s x%d\n", line.Title, line.Qty)
	return a.showCart()
}

func (a *app) adjustCart(ctx context.Context, args []string, op func(context.Context, cart.Key) error) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: <command> <productId> [variantId] [-handmade]")
	}
	fs := flag.NewFlagSet("cart-line", flag.ContinueOnError)
	fs.SetOutput(a.out)
	handmade := fs.Bool("handmade", false, "handmade pricing tier")
	key := cart.Key{ProductID: args[0]}
	rest := args[1:]
	if len(rest) > 0 && rest[0] != "" && rest[0][0] != '-' {
		key.VariantID = rest[0]
		rest = rest[1:]
	}
	if err := fs.Parse(rest); err != nil {
		return err
	}
	key.IsHandmade = *handmade
	if err := op(ctx, key); err != nil {
		return err
	}
	return a.showCart()
}

func (a *app) checkout(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	fs.SetOutput(a.out)
	addr := checkout.ShippingAddress{}
	fs.StringVar(&addr.FullName, "name", "", "full name")
	fs.StringVar(&addr.Email, "email", "", "email")
	fs.StringVar(&addr.Phone, "phone", "", "10-digit phone")
	fs.StringVar(&addr.Address, "address", "", "street address")
	fs.StringVar(&addr.City, "city", "", "city")
	fs.StringVar(&addr.State, "state", "", "state")
	fs.StringVar(&addr.Pincode, "pincode", "", "6-digit pincode")
	if err := fs.Parse(args); err != nil {
		return err
	}

	conf, err := a.orchestr.Execute(ctx, addr)
	if err != nil {
		return err
	}
	if conf == nil {
		fmt.Fprintln(a.out, "payment cancelled, cart kept")
		return nil
	}
	fmt.Fprintf(a.out, "order %s confirmed, paid %s\n", conf.OrderID, conf.Amount.Format())
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: login <email> <password>")
	}
	user, err := a.auth.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "signed in as %s (%s)\n", user.Name, user.Role)
	// The process exits when this command returns; join the cart merge
	// or it dies mid-flight.
	a.auth.Wait()
	return a.showCart()
}

func (a *app) register(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: register <name> <email> <password>")
	}
	user, err := a.auth.Register(ctx, args[0], args[1], args[2])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "welcome %s\n", user.Name)
	a.auth.Wait()
	return a.showCart()
}

func (a *app) whoAmI(ctx context.Context) error {
	user, err := a.auth.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s <%s> role %s\n", user.Name, user.Email, user.Role)
	return nil
}

func (a *app) orderHistory(ctx context.Context) error {
	history, err := a.orders.History(ctx)
	if err != nil {
		return err
	}
	return a.printOrders(history)
}

func (a *app) allOrders(ctx context.Context) error {
	all, err := a.orders.All(ctx)
	if err != nil {
		return err
	}
	return a.printOrders(all)
}

func (a *app) printOrders(list []orders.Order) error {
	if len(list) == 0 {
		fmt.Fprintln(a.out, "no orders")
		return nil
	}
	for _, o := range list {
		fmt.Fprintf(a.out, "%s  %s  %s/%s  %s\n",
			o.ID, o.CreatedAt.Format("2006-01-02"), o.Status, o.PaymentStatus, o.TotalAmount.Format())
	}
	return nil
}

func (a *app) setOrderStatus(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: order-status <orderId> <%s|%s|%s|%s>",
			orders.StatusPending, orders.StatusShipped, orders.StatusDelivered, orders.StatusCancelled)
	}
	return a.orders.SetStatus(ctx, args[0], orders.Status(args[1]))
}

// variantList collects repeated -variant size:price:stock flags.
type variantList []catalog.VariantInput

func (v *variantList) String() string {
	return fmt.Sprintf("%d variants", len(*v))
}

func (v *variantList) Set(raw string) error {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) != 3 {
		return fmt.Errorf("variant must be size:price:stock, got %q", raw)
	}
	price, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return fmt.Errorf("variant price %q: %w", parts[1], err)
	}
	stock, err := strconv.Atoi(parts[2])
	if err != nil {
		return fmt.Errorf("variant stock %q: %w", parts[2], err)
	}
	*v = append(*v, catalog.VariantInput{Size: parts[0], Price: money.Paise(price), StockQuantity: stock})
	return nil
}

func (a *app) saveProduct(ctx context.Context, productID string, args []string) error {
	fs := flag.NewFlagSet("product", flag.ContinueOnError)
	fs.SetOutput(a.out)
	input := catalog.ProductInput{IsActive: true}
	var variants variantList
	var images string
	pricePaise := fs.Int64("price", 0, "base price in paise")
	fs.StringVar(&input.Title, "title", "", "product title")
	fs.StringVar(&input.Description, "description", "", "product description")
	fs.StringVar(&input.Collection, "collection", "", "collection name")
	fs.StringVar(&images, "images", "", "comma-separated image urls")
	fs.BoolVar(&input.IsLimitedEdition, "limited", false, "limited edition drop")
	inactive := fs.Bool("inactive", false, "hide from the shop")
	fs.Var(&variants, "variant", "size:price_paise:stock, repeatable")
	if err := fs.Parse(args); err != nil {
		return err
	}
	input.Price = money.Paise(*pricePaise)
	input.IsActive = !*inactive
	input.Variants = variants
	if images != "" {
		input.Images = strings.Split(images, ",")
	}

	var (
		saved *catalog.Product
		err   error
	)
	if productID == "" {
		saved, err = a.admin.Create(ctx, input)
	} else {
		saved, err = a.admin.Update(ctx, productID, input)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "saved %s  %s  %s\n", saved.ID, saved.Title, saved.Price.Format())
	return nil
}

func (a *app) deleteProduct(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: product-rm <id>")
	}
	if err := a.admin.Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "deleted %s\n", args[0])
	return nil
}

func (a *app) showWishlist(ctx context.Context) error {
	entries, err := a.wishlist.List(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "wishlist is empty")
		return nil
	}
	for _, e := range entries {
		note := ""
		if !e.Product.IsActive {
			note = "  (no longer sold)"
		}
		fmt.Fprintf(a.out, "%s  %-30s %s%s\n", e.Product.ID, e.Product.Title, e.Product.Price.Format(), note)
	}
	return nil
}

func (a *app) toggleWish(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: wish <productId>")
	}
	if err := a.wishlist.Toggle(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "wishlist updated")
	return nil
}
