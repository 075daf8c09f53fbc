package pg

// DDL возвращает схему хранилища карт (charts) фазами: сначала таблицы и
// индексы, потом внешние ключи. Ключи сортируются в ApplyDDL, поэтому
// префиксы 000_/200_ задают порядок.
//
// Слаг опубликованной карты живёт внутри config (jsonb); частичный
// уникальный индекс по выражению страхует check-then-insert в сервисе
// публикации от гонок на слабой изоляции.
func DDL() map[string]string {
	out := make(map[string]string, 2)

	out["000_schemas_and_tables"] = `
create table if not exists datasets (
  "id" bigint primary key,
  "name" text not null,
  "namespace" text not null default '',
  "created_at" timestamp with time zone not null default now()
);

create table if not exists variables (
  "id" bigint primary key,
  "name" text not null,
  "dataset_id" bigint,
  "display" jsonb not null default '{}'::jsonb,
  "created_at" timestamp with time zone not null default now(),
  "updated_at" timestamp with time zone not null default now()
);

create table if not exists users (
  "id" bigserial primary key,
  "email" text not null,
  "full_name" text not null default '',
  "is_superuser" boolean not null default false,
  "created_at" timestamp with time zone not null default now(),
  "updated_at" timestamp with time zone not null default now()
);
create unique index if not exists users_email_uq on users("email");

create table if not exists charts (
  "id" bigserial primary key,
  "config" jsonb not null,
  "is_published" boolean not null default false,
  "starred" boolean not null default false,
  "created_at" timestamp with time zone not null default now(),
  "updated_at" timestamp with time zone not null default now(),
  "last_edited_at" timestamp with time zone not null default now(),
  "last_edited_by" text not null default '',
  "published_at" timestamp with time zone null,
  "published_by" text null
);
create unique index if not exists charts_published_slug_uq
  on charts ((config->>'slug')) where "is_published";

create table if not exists chart_slug_redirects (
  "id" bigserial primary key,
  "chart_id" bigint not null,
  "slug" text not null,
  "created_at" timestamp with time zone not null default now()
);
create unique index if not exists chart_slug_redirects_slug_uq
  on chart_slug_redirects("slug");

create table if not exists chart_dimensions (
  "id" bigserial primary key,
  "chart_id" bigint not null,
  "variable_id" bigint not null,
  "property" text not null,
  "ord" integer not null default 0
);
create index if not exists chart_dimensions_chart_idx on chart_dimensions("chart_id");
create index if not exists chart_dimensions_variable_idx on chart_dimensions("variable_id");

create table if not exists chart_revisions (
  "id" text primary key,
  "chart_id" bigint not null,
  "version" bigint not null,
  "config" jsonb not null,
  "created_at" timestamp with time zone not null default now(),
  "created_by" text not null default ''
);
create index if not exists chart_revisions_chart_idx on chart_revisions("chart_id");
`

	out["200_foreign_keys"] = `
alter table variables add constraint variables_dataset_fk
  foreign key ("dataset_id") references datasets(id) on delete set null;
alter table chart_slug_redirects add constraint chart_slug_redirects_chart_fk
  foreign key ("chart_id") references charts(id) on delete cascade;
alter table chart_dimensions add constraint chart_dimensions_chart_fk
  foreign key ("chart_id") references charts(id) on delete cascade;
alter table chart_dimensions add constraint chart_dimensions_variable_fk
  foreign key ("variable_id") references variables(id) on delete restrict;
alter table chart_revisions add constraint chart_revisions_chart_fk
  foreign key ("chart_id") references charts(id) on delete cascade;
`

	return out
}
