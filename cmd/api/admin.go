package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	appuser "github.com/xiebiao/mall/internal/application/user"
	"github.com/xiebiao/mall/internal/domain/user"
	"github.com/xiebiao/mall/internal/infrastructure/persistence/mysql"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "管理员账号（注册接口只能创建普通用户）",
	}
	cmd.AddCommand(newAdminCreateCmd(), newAdminPromoteCmd())
	return cmd
}

func newAdminCreateCmd() *cobra.Command {
	var req appuser.RegisterRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "创建管理员",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUserService(cmd.Context(), func(ctx context.Context, svc user.Service) error {
				admin, err := appuser.NewCreateAdminUseCase(svc).Execute(ctx, req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "管理员已创建: id=%d email=%s\n", admin.ID, admin.Email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "邮箱")
	cmd.Flags().StringVar(&req.Password, "password", "", "密码（8-20位，包含字母和数字）")
	cmd.Flags().StringVar(&req.Nickname, "nickname", "管理员", "昵称")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newAdminPromoteCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "promote",
		Short: "将已注册用户提升为管理员",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withUserService(cmd.Context(), func(ctx context.Context, svc user.Service) error {
				u, err := appuser.NewPromoteAdminUseCase(svc).Execute(ctx, email)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "已提升为管理员: id=%d email=%s\n", u.ID, u.Email)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "邮箱")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func withUserService(ctx context.Context, fn func(ctx context.Context, svc user.Service) error) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, closeDB, err := provideDB(cfg, log)
	if err != nil {
		return err
	}
	defer closeDB()

	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, user.NewService(mysql.NewUserRepository(db)))
}
