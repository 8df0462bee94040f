package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/common"
	"github.com/dmitrijs2005/gophdrive/internal/filex"
	"github.com/dmitrijs2005/gophdrive/internal/netx"
	"github.com/dmitrijs2005/gophdrive/internal/rpc"
	"github.com/dustin/go-humanize"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func (a *App) printEntries(list []*rpc.Entry) {
	if len(list) == 0 {
		fmt.Fprintln(a.out, "(empty)")
		return
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tSIZE\tUPDATED\tNAME")
	for _, e := range list {
		kind, size := "file", humanize.IBytes(uint64(e.SizeBytes))
		if e.IsFolder {
			kind, size = "dir", "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", e.ID, kind, size, e.UpdatedAt.Local().Format(time.DateTime), e.Name)
	}
	_ = w.Flush()
}

func (a *App) printGrant(g *rpc.Grant) {
	who := g.Principal
	if g.Mode == "link" {
		who = "link"
		if g.HasPassword {
			who += " (password)"
		}
	}
	expires := "never"
	if g.ExpiresAt != nil {
		expires = humanize.Time(*g.ExpiresAt)
	}
	fmt.Fprintf(a.out, "grant %d: %s %d -> %s, %s, expires %s\n", g.ID, g.SubjectType, g.SubjectID, who, g.Permission, expires)
}

func (a *App) list(ctx context.Context, args []string) error {
	parent := a.cwd()
	if len(args) > 0 {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		parent = &id
	}
	list, err := a.client.List(ctx, parent)
	if err != nil {
		return err
	}
	a.printEntries(list)
	return nil
}

func (a *App) cd(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("cd <folder-id> | .. | /")
	}
	switch args[0] {
	case "/":
		a.path = nil
		return nil
	case "..":
		if len(a.path) > 0 {
			a.path = a.path[:len(a.path)-1]
		}
		return nil
	}

	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	list, err := a.client.List(ctx, a.cwd())
	if err != nil {
		return err
	}
	for _, e := range list {
		if e.ID == id && e.IsFolder {
			a.path = append(a.path, crumb{id: e.ID, name: e.Name})
			return nil
		}
	}
	return fmt.Errorf("no folder %d in %s", id, a.getStatus())
}

func (a *App) mkdir(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("mkdir <name>")
	}
	e, err := a.client.CreateFolder(ctx, a.cwd(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created folder %q (id %d)\n", e.Name, e.ID)
	return nil
}

func (a *App) put(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usage("put <local-path> [name]")
	}
	data, name, err := filex.ReadUpload(args[0], a.config.MaxUploadBytes)
	if err != nil {
		return err
	}
	if len(args) == 2 {
		name = args[1]
	}
	e, err := a.client.Upload(ctx, a.cwd(), name, "", data)
	if err != nil {
		if errors.Is(err, common.ErrQuotaExceeded) {
			return fmt.Errorf("not enough space: %w", err)
		}
		return err
	}
	fmt.Fprintf(a.out, "Uploaded %q (id %d, %s, %s)\n", e.Name, e.ID, humanize.IBytes(uint64(e.SizeBytes)), e.MimeType)
	return nil
}

func (a *App) get(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("get <id>")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	e, data, err := a.client.Download(ctx, id)
	if err != nil {
		return err
	}
	path, err := filex.WriteDownload(a.config.DownloadDir, e.Name, data)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved %s (%s)\n", path, humanize.IBytes(uint64(len(data))))
	return nil
}

func (a *App) url(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("url <id>")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	u, err := a.client.DownloadURL(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, u)
	return nil
}

func (a *App) rename(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("mv <id> <new-name>")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	e, err := a.client.Rename(ctx, id, args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Renamed %d to %q\n", e.ID, e.Name)
	return nil
}

func (a *App) remove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("rm <id>")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := a.client.Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrNotEmpty) {
			return fmt.Errorf("folder %d is not empty", id)
		}
		return err
	}
	fmt.Fprintf(a.out, "Deleted %d\n", id)
	return nil
}

func (a *App) search(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("search <term>")
	}
	list, err := a.client.Search(ctx, args[0])
	if err != nil {
		return err
	}
	a.printEntries(list)
	return nil
}

func (a *App) info(ctx context.Context) error {
	u, err := a.client.StorageInfo(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Used %s of %s (%d%%), %s free\n", u.Used, u.Limit, u.Percentage, humanize.IBytes(uint64(u.RemainingBytes)))
	return nil
}

func (a *App) share(ctx context.Context, args []string) error {
	if len(args) < 3 || len(args) > 4 {
		return usage("share <file|folder> <id> <email> [view|edit]")
	}
	id, err := parseID(args[1])
	if err != nil {
		return err
	}
	req := &rpc.ShareRequest{SubjectType: args[0], SubjectID: id, Email: args[2]}
	if len(args) == 4 {
		req.Permission = args[3]
	}
	g, err := a.client.ShareWithPrincipal(ctx, req)
	if err != nil {
		return err
	}
	a.printGrant(g)
	return nil
}

func (a *App) link(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usage("link <file|folder> <id> [view|edit] [-p]")
	}
	id, err := parseID(args[1])
	if err != nil {
		return err
	}
	req := &rpc.CreateLinkRequest{SubjectType: args[0], SubjectID: id}
	for _, opt := range args[2:] {
		switch opt {
		case "-p":
			pw, err := GetPassword(a.out, "Link password")
			if err != nil {
				return err
			}
			req.Password = pw
		default:
			req.Permission = opt
		}
	}

	g, url, err := a.client.CreateLink(ctx, req)
	if err != nil {
		return err
	}
	a.printGrant(g)
	fmt.Fprintln(a.out, url)
	return nil
}

// resolve opens a share link, asking for the password once if the link is
// protected.
func (a *App) resolve(ctx context.Context, token string) (*rpc.LinkView, error) {
	view, err := a.client.ResolveLink(ctx, token, "")
	if !errors.Is(err, common.ErrForbidden) {
		return view, err
	}
	pw, perr := GetPassword(a.out, "Link password")
	if perr != nil {
		return nil, perr
	}
	return a.client.ResolveLink(ctx, token, pw)
}

func (a *App) open(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("open <token>")
	}
	view, err := a.resolve(ctx, args[0])
	if err != nil {
		if errors.Is(err, common.ErrExpired) {
			return errors.New("this link has expired")
		}
		return err
	}
	a.printGrant(view.Grant)
	a.printEntries([]*rpc.Entry{view.Entry})
	if view.Entry.IsFolder {
		fmt.Fprintln(a.out, "Contents:")
		a.printEntries(view.Children)
	} else {
		fmt.Fprintln(a.out, view.URL)
	}
	return nil
}

func (a *App) fetch(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("fetch <token>")
	}
	view, err := a.resolve(ctx, args[0])
	if err != nil {
		return err
	}
	if view.Entry.IsFolder {
		return fmt.Errorf("link points at folder %q; use open", view.Entry.Name)
	}
	data, err := netx.Fetch(ctx, view.URL, a.config.MaxUploadBytes)
	if err != nil {
		return err
	}
	path, err := filex.WriteDownload(a.config.DownloadDir, view.Entry.Name, data)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved %s (%s)\n", path, humanize.IBytes(uint64(len(data))))
	return nil
}

func (a *App) shared(ctx context.Context) error {
	items, err := a.client.ListSharedWithMe(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(a.out, "Nothing has been shared with you.")
		return nil
	}
	for _, it := range items {
		fmt.Fprintf(a.out, "%d\t%s\t%s\n", it.Entry.ID, it.Grant.Permission, it.Entry.Name)
	}
	return nil
}

func (a *App) grants(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("grants <id>")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	list, err := a.client.ListGrants(ctx, id)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "Not shared.")
	}
	for _, g := range list {
		a.printGrant(g)
	}
	return nil
}

func (a *App) revoke(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("revoke <grant-id>")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := a.client.RevokeGrant(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Revoked grant %d\n", id)
	return nil
}
